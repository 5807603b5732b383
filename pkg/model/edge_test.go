package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func messageRequiringPredicate(node Node, flow *Flow) *Predicate {
	return &Predicate{
		Kind:     PredicateLeaf,
		LeafNode: node,
		LeafFlow: flow,
		LeafFn:   &LeafFunc{Name: "fieldEqual", RequiresMessage: true},
	}
}

func TestEdgeCheckRejectsEmptyNodesTo(t *testing.T) {
	edge := &Edge{Flow: &Flow{Name: "flow1"}, Predicate: AlwaysTrue()}
	require.Error(t, edge.Check())
}

func TestEdgeCheckRejectsMessagePredicateOnStartingEdge(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "flow1"}
	edge := &Edge{NodesTo: []Node{task}, Flow: flow, Predicate: messageRequiringPredicate(task, flow)}

	err := edge.Check()
	require.ErrorIs(t, err, ErrNoParentNode)
}

func TestEdgeCheckRejectsMessagePredicateOnReadonlyStorageTask(t *testing.T) {
	upstream := &Task{Name: "Task1", StorageReadonly: true}
	downstream := &Task{Name: "Task2"}
	flow := &Flow{Name: "flow1"}
	edge := &Edge{
		NodesFrom: []Node{upstream},
		NodesTo:   []Node{downstream},
		Flow:      flow,
		Predicate: messageRequiringPredicate(upstream, flow),
	}

	require.Error(t, edge.Check())
}

func TestEdgeCheckRejectsForeachPropagateResultOnNonSubflow(t *testing.T) {
	task := &Task{Name: "Task1"}
	flow := &Flow{Name: "flow1"}
	edge := &Edge{
		NodesFrom: []Node{task},
		NodesTo:   []Node{task},
		Flow:      flow,
		Predicate: AlwaysTrue(),
		Foreach:   &Foreach{Function: "splitItems", PropagateResult: true},
	}

	require.Error(t, edge.Check())
}

func TestEdgeCheckAcceptsForeachPropagateResultOnSubflow(t *testing.T) {
	outer := &Flow{Name: "outer"}
	inner := &Flow{Name: "inner"}
	edge := &Edge{
		NodesTo:   []Node{inner},
		Flow:      outer,
		Predicate: AlwaysTrue(),
		Foreach:   &Foreach{Function: "splitItems", PropagateResult: true},
	}

	require.NoError(t, edge.Check())
}

func TestEdgeIsStarting(t *testing.T) {
	task := &Task{Name: "Task1"}
	require.True(t, (&Edge{NodesTo: []Node{task}}).IsStarting())
	require.False(t, (&Edge{NodesFrom: []Node{task}, NodesTo: []Node{task}}).IsStarting())
}
