package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlowValidateRejectsNoEdges(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	require.ErrorIs(t, flow.Validate(), ErrFlowHasNoEdges)
}

func TestFlowValidateRejectsNoStartingEdge(t *testing.T) {
	task1 := &Task{Name: "Task1"}
	task2 := &Task{Name: "Task2"}
	flow := &Flow{Name: "flow1"}
	flow.Edges = []*Edge{{NodesFrom: []Node{task1}, NodesTo: []Node{task2}, Flow: flow, Predicate: AlwaysTrue()}}

	require.ErrorIs(t, flow.Validate(), ErrFlowHasNoStartingEdge)
}

func TestFlowValidateRejectsInvalidIdentifier(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "1bad"}
	flow.Edges = []*Edge{{NodesTo: []Node{task}, Flow: flow, Predicate: AlwaysTrue()}}

	require.Error(t, flow.Validate())
}

func TestFlowValidateRejectsNonDisjointPropagation(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "flow1"}
	flow.Edges = []*Edge{{NodesTo: []Node{task}, Flow: flow, Predicate: AlwaysTrue()}}
	flow.PropagateFinished = PropagationFlag{Kind: PropagationTrue}
	flow.PropagateCompoundFinished = PropagationFlag{Kind: PropagationTrue}

	require.Error(t, flow.Validate())
}

func TestFlowValidateAcceptsWellFormedFlow(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "flow1"}
	flow.Edges = []*Edge{{NodesTo: []Node{task}, Flow: flow, Predicate: AlwaysTrue()}}

	require.NoError(t, flow.Validate())
}

func TestFlowIsNode(t *testing.T) {
	flow := &Flow{Name: "flow1"}
	require.Equal(t, "flow1", flow.NodeName())
	require.False(t, flow.IsTask())
	require.True(t, flow.IsFlow())
}

func TestFlowCheckPropagatesEdgeErrors(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "flow1"}
	flow.Edges = []*Edge{{Flow: flow, Predicate: AlwaysTrue()}} // empty nodes_to
	_ = task

	require.Error(t, flow.Check())
}
