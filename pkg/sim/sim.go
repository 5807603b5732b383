// Package sim implements the in-process simulator (spec.md §2 component
// L): a deterministic, single-goroutine execution of one flow's edges
// against user-supplied task runner functions, useful for testing a
// configuration end to end without a real broker or worker pool.
package sim

import (
	"fmt"

	"github.com/google/uuid"

	"flowc/pkg/model"
)

// TaskRunner executes one task given the flow's node_args, returning the
// value that gets stored as that task's message for downstream predicates
// to read.
type TaskRunner func(taskName string, nodeArgs map[string]interface{}) (interface{}, error)

// messageStore is an in-memory model.MessageStore: flow name + node name
// -> stored result, scoped to a single Run.
type messageStore struct {
	results map[string]interface{}
}

func (s *messageStore) key(flowName, nodeName string) string {
	return flowName + "/" + nodeName
}

func (s *messageStore) Get(flowName, nodeName string) (interface{}, error) {
	v, ok := s.results[s.key(flowName, nodeName)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *messageStore) set(flowName, nodeName string, value interface{}) {
	s.results[s.key(flowName, nodeName)] = value
}

// Result is the outcome of a single flow Run: the execution id, the
// order tasks actually fired in, and every task's stored result.
type Result struct {
	ExecutionID string
	FiredOrder  []string
	Results     map[string]interface{}
}

// Run executes flow to completion: starting edges fire immediately, every
// other edge fires once all of its nodes_from have produced a result and
// its predicate evaluates true against those results. Sub-flow nodes_to
// are recorded as fired but not recursively executed — spec.md scopes the
// simulator to one flow's edges (a full nested-flow run is out of scope,
// per the component's "deterministic single-process execution of the
// plan" description).
func Run(flow *model.Flow, runners map[string]TaskRunner, nodeArgs map[string]interface{}) (*Result, error) {
	store := &messageStore{results: make(map[string]interface{})}
	finished := make(map[string]bool)
	result := &Result{ExecutionID: uuid.NewString(), Results: store.results}

	pending := append([]*model.Edge{}, flow.Edges...)

	for attempted := true; attempted && len(pending) > 0; {
		attempted = false
		var remaining []*model.Edge

		for _, edge := range pending {
			ready := true
			for _, n := range edge.NodesFrom {
				if !finished[n.NodeName()] {
					ready = false
					break
				}
			}
			if !ready {
				remaining = append(remaining, edge)
				continue
			}

			ok, err := edge.Predicate.Evaluate(store, nodeArgs)
			if err != nil {
				return nil, fmt.Errorf("evaluating edge condition in flow %s: %w", flow.Name, err)
			}
			if !ok {
				continue // predicate false: edge does not fire, and is not retried.
			}

			for _, n := range edge.NodesTo {
				if finished[n.NodeName()] {
					continue
				}
				if n.IsFlow() {
					finished[n.NodeName()] = true
					result.FiredOrder = append(result.FiredOrder, n.NodeName())
					continue
				}
				runner, ok := runners[n.NodeName()]
				if !ok {
					return nil, fmt.Errorf("no task runner registered for %q", n.NodeName())
				}
				value, err := runner(n.NodeName(), nodeArgs)
				if err != nil {
					return nil, fmt.Errorf("running task %q: %w", n.NodeName(), err)
				}
				store.set(flow.Name, n.NodeName(), value)
				finished[n.NodeName()] = true
				result.FiredOrder = append(result.FiredOrder, n.NodeName())
			}
			attempted = true
		}

		pending = remaining
	}

	return result, nil
}
