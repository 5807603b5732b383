package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructFailureGraphCrossLinksSiblingPermutations(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	descriptors := []FailureDescriptor{
		{Nodes: []string{"A", "B", "C"}, Fallback: []string{"X"}},
		{Nodes: []string{"A", "B"}, Fallback: []string{"Y"}},
	}

	graph, err := ConstructFailureGraph(flow, descriptors)
	require.NoError(t, err)

	require.Len(t, graph.StartingFailures, 3)
	nodeA := graph.StartingFailures["A"]
	nodeB := graph.StartingFailures["B"]
	require.NotNil(t, nodeA)
	require.NotNil(t, nodeB)

	// Reaching {A,B} via A-then-B must be the same node as via B-then-A.
	ab, ok := nodeA.To("B")
	require.True(t, ok)
	ba, ok := nodeB.To("A")
	require.True(t, ok)
	require.Same(t, ab, ba)
	require.Equal(t, []string{"Y"}, ab.Fallback)

	abc, ok := ab.To("C")
	require.True(t, ok)
	require.Equal(t, []string{"X"}, abc.Fallback)

	var count int
	for n := graph.LastAllocated; n != nil; n = n.FailureLink {
		count++
	}
	require.Equal(t, 7, count, "A, B, C, {A,B}, {A,C}, {B,C}, {A,B,C} should allocate seven permutations")
}

func TestConstructFailureGraphRejectsDuplicateDefinition(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	descriptors := []FailureDescriptor{
		{Nodes: []string{"A", "B"}, Fallback: []string{"X"}},
		{Nodes: []string{"B", "A"}, Fallback: []string{"Y"}},
	}

	_, err := ConstructFailureGraph(flow, descriptors)
	require.ErrorIs(t, err, ErrDuplicateFailureDefinition)
}

func TestConstructFailureGraphRejectsFallbackTrueAndPropagate(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	descriptors := []FailureDescriptor{
		{Nodes: []string{"A"}, FallbackIsTrue: true, PropagateFailure: true},
	}

	_, err := ConstructFailureGraph(flow, descriptors)
	require.ErrorIs(t, err, ErrFallbackTrueAndPropagate)
}

func TestAllWaitingAndFallbackNodes(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	descriptors := []FailureDescriptor{
		{Nodes: []string{"A", "B"}, Fallback: []string{"X"}},
	}

	graph, err := ConstructFailureGraph(flow, descriptors)
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"A", "B"}, graph.AllWaitingNodes())
	require.ElementsMatch(t, []string{"X"}, graph.AllFallbackNodes())
}
