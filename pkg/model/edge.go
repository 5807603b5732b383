package model

import "fmt"

// Foreach describes an edge's optional fan-out: the bound function is
// called once per item it yields, spawning one instance of nodes_to per
// item (spec.md §3 Edge).
type Foreach struct {
	Function        string
	ImportPath      string
	PropagateResult bool
}

// Edge connects an ordered set of source nodes (possibly empty, denoting a
// starting edge) to a non-empty ordered set of destination nodes, gated by
// a Predicate.
type Edge struct {
	NodesFrom []Node
	NodesTo   []Node
	Predicate *Predicate
	Flow      *Flow
	Foreach   *Foreach
}

// IsStarting reports whether this edge fires when the flow begins (no
// source nodes to wait on).
func (e *Edge) IsStarting() bool { return len(e.NodesFrom) == 0 }

// Check enforces the edge-level invariants of spec.md §4.D:
//  1. every node in nodes_from/nodes_to is defined in the enclosing System
//     (checked by the caller during resolution, since Edge itself has no
//     System back-reference);
//  2. if foreach.propagate_result is true, every node in nodes_to must be a
//     Flow, and the enclosing flow's propagate_node_args may not cover any
//     of those sub-flows (bare true, or a list naming that sub-flow);
//  3. a leaf predicate requiring a message may not be attached to a
//     starting edge, nor to an edge whose bound node is a Flow, nor to an
//     edge whose bound node is a Task with readonly storage.
func (e *Edge) Check() error {
	if len(e.NodesTo) == 0 {
		return NewConfigurationError(flowName(e.Flow), "", "edge nodes_to must be non-empty")
	}

	if e.Foreach != nil && e.Foreach.PropagateResult {
		for _, n := range e.NodesTo {
			if !n.IsFlow() {
				return NewConfigurationError(flowName(e.Flow), n.NodeName(), "foreach.propagate_result requires every nodes_to entry to be a sub-flow")
			}
			if e.Flow != nil && e.Flow.PropagateNodeArgs.Contains(n.NodeName()) {
				return NewConfigurationError(flowName(e.Flow), n.NodeName(), "foreach.propagate_result is incompatible with propagate_node_args on the same sub-flow")
			}
		}
	}

	if e.Predicate == nil {
		return nil
	}
	if !e.Predicate.RequiresMessage() {
		return nil
	}
	if e.IsStarting() {
		return fmt.Errorf("%w: predicate on starting edge requires a message", ErrNoParentNode)
	}
	for name, node := range e.Predicate.NodesUsed() {
		if node.IsFlow() {
			return NewConfigurationError(flowName(e.Flow), name, "predicate requiring a message cannot be bound to a sub-flow node")
		}
		task, ok := node.(*Task)
		if ok && task.StorageReadonly {
			return NewConfigurationError(flowName(e.Flow), name, "predicate requiring a message cannot be bound to a task with readonly storage")
		}
	}
	return nil
}
