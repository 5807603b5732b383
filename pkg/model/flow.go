package model

import (
	"time"

	"flowc/pkg/ident"
)

// Flow is a Node subclass: a named, ordered collection of edges plus the
// scheduling, caching, retry and failure-handling configuration that
// governs its dispatch (spec.md §3 Flow).
type Flow struct {
	Name    string
	Edges   []*Edge
	Failures *FailureGraph

	NowaitNodes       []Node
	NodeArgsFromFirst bool
	QueueName         string
	Strategy          StrategyBinding
	CacheConfig       CacheConfig
	MaxRetry          int
	RetryCountdown    int
	Throttling        *time.Duration

	PropagateNodeArgs         PropagationFlag
	PropagateParent           PropagationFlag
	PropagateParentFailures   PropagationFlag
	PropagateFinished         PropagationFlag
	PropagateCompoundFinished PropagationFlag
	PropagateFailures         PropagationFlag
	PropagateCompoundFailures PropagationFlag
}

// StrategyBinding names the scheduling strategy function bound to a flow
// (see pkg/strategy) plus its static configuration arguments.
type StrategyBinding struct {
	Name string
	Args map[string]interface{}
}

// NodeName implements Node.
func (f *Flow) NodeName() string { return f.Name }

// IsTask implements Node.
func (f *Flow) IsTask() bool { return false }

// IsFlow implements Node.
func (f *Flow) IsFlow() bool { return true }

// Validate enforces the Flow-level invariants of spec.md §3: the
// identifier rule, the disjointness of the two propagate/compound pairs,
// and structural non-emptiness (at least one edge, at least one starting
// edge), matching the post_parse_check rules restated in §4.G.
func (f *Flow) Validate() error {
	if err := ident.Check("flow", f.Name); err != nil {
		return &ConfigurationError{Flow: f.Name, Message: err.Error()}
	}

	if err := disjoint(f.PropagateFinished, f.PropagateCompoundFinished); err != nil {
		return withFlow(err.(*ConfigurationError), f.Name)
	}
	if err := disjoint(f.PropagateFailures, f.PropagateCompoundFailures); err != nil {
		return withFlow(err.(*ConfigurationError), f.Name)
	}

	if len(f.Edges) == 0 {
		return NewConfigurationErrorWrap(f.Name, "", ErrFlowHasNoEdges)
	}

	hasStarting := false
	for _, e := range f.Edges {
		if e.IsStarting() {
			hasStarting = true
			break
		}
	}
	if !hasStarting {
		return NewConfigurationErrorWrap(f.Name, "", ErrFlowHasNoStartingEdge)
	}

	return nil
}

// Check runs Edge.Check over every edge of the flow, stopping at the first
// failure, then Predicate.Check over every edge's predicate tree.
func (f *Flow) Check() error {
	for _, e := range f.Edges {
		if err := e.Check(); err != nil {
			return err
		}
		if e.Predicate != nil {
			if err := e.Predicate.Check(); err != nil {
				return err
			}
		}
	}
	return nil
}

func withFlow(err *ConfigurationError, flow string) *ConfigurationError {
	if err.Flow == "" {
		err.Flow = flow
	}
	return err
}

// NewConfigurationErrorWrap builds a ConfigurationError that wraps a
// sentinel error (e.g. ErrFlowHasNoEdges) for errors.Is call sites.
func NewConfigurationErrorWrap(flow, node string, err error) *ConfigurationError {
	return &ConfigurationError{Flow: flow, Node: node, Message: err.Error(), Err: err}
}
