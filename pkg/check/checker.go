// Package check implements the static checker of spec.md §4.G: the
// cross-edge, cross-flow invariants that a single Edge.Check()/Flow.Validate()
// call cannot see on its own, because they need the whole flow (or the
// whole System) in view at once.
package check

import (
	"fmt"

	"flowc/pkg/config"
	"flowc/pkg/model"
	"flowc/pkg/strategy"
)

// System runs every check of spec.md §4.G over sys, returning the first
// ConfigurationError found and a list of non-fatal warnings otherwise.
func System(sys *config.System) (warnings []string, err error) {
	for _, name := range sys.FlowOrder {
		flow := sys.Flows[name]

		if err := flow.Validate(); err != nil {
			return warnings, err
		}
		if err := flow.Check(); err != nil {
			return warnings, err
		}
		if err := checkProducedNodes(flow); err != nil {
			return warnings, err
		}
		if err := checkNowaitNodes(flow); err != nil {
			return warnings, err
		}
		if err := checkNodeArgsFromFirst(flow); err != nil {
			return warnings, err
		}
		if err := checkPropagationLists(flow); err != nil {
			return warnings, err
		}
		if err := checkPropagateFailuresCaught(flow); err != nil {
			return warnings, err
		}
		if err := checkStrategyResolves(flow); err != nil {
			return warnings, err
		}
	}

	warnings = append(warnings, checkTaskClassDivergence(sys)...)

	return warnings, nil
}

func allDestinationNodes(flow *model.Flow) map[string]bool {
	out := make(map[string]bool)
	for _, e := range flow.Edges {
		for _, n := range e.NodesTo {
			out[n.NodeName()] = true
		}
	}
	return out
}

func allSourceNodes(flow *model.Flow) map[string]bool {
	out := make(map[string]bool)
	for _, e := range flow.Edges {
		for _, n := range e.NodesFrom {
			out[n.NodeName()] = true
		}
	}
	return out
}

func nowaitSet(flow *model.Flow) map[string]bool {
	out := make(map[string]bool)
	for _, n := range flow.NowaitNodes {
		out[n.NodeName()] = true
	}
	return out
}

// checkProducedNodes enforces: every task named in some edge's nodes_from,
// or in failures.all_waiting_nodes(), must be produced by some edge's
// nodes_to, or be a nowait_nodes member, or be named as a fallback.
// Sub-flow sources are exempt: a starting sub-flow need not be produced
// inside this flow.
func checkProducedNodes(flow *model.Flow) error {
	produced := allDestinationNodes(flow)
	nowait := nowaitSet(flow)

	fallback := make(map[string]bool)
	if flow.Failures != nil {
		for _, n := range flow.Failures.AllFallbackNodes() {
			fallback[n] = true
		}
	}

	required := make(map[string]model.Node)
	for _, e := range flow.Edges {
		for _, n := range e.NodesFrom {
			if n.IsTask() {
				required[n.NodeName()] = n
			}
		}
	}
	if flow.Failures != nil {
		for _, name := range flow.Failures.AllWaitingNodes() {
			if _, ok := required[name]; !ok {
				required[name] = nil
			}
		}
	}

	for name := range required {
		if produced[name] || nowait[name] || fallback[name] {
			continue
		}
		return model.NewConfigurationError(flow.Name, name, "task consumed but never produced by this flow")
	}
	return nil
}

// checkNowaitNodes enforces nowait_nodes ⊆ destinations and
// nowait_nodes ∩ sources = ∅.
func checkNowaitNodes(flow *model.Flow) error {
	destinations := allDestinationNodes(flow)
	sources := allSourceNodes(flow)
	for _, n := range flow.NowaitNodes {
		name := n.NodeName()
		if !destinations[name] {
			return model.NewConfigurationError(flow.Name, name, "nowait node is not a destination of any edge")
		}
		if sources[name] {
			return model.NewConfigurationError(flow.Name, name, "nowait node also appears as an edge source")
		}
	}
	return nil
}

// checkNodeArgsFromFirst enforces: node_args_from_first requires exactly
// one starting edge whose nodes_to contains exactly one Task.
func checkNodeArgsFromFirst(flow *model.Flow) error {
	if !flow.NodeArgsFromFirst {
		return nil
	}
	var startingEdges []*model.Edge
	for _, e := range flow.Edges {
		if e.IsStarting() {
			startingEdges = append(startingEdges, e)
		}
	}
	if len(startingEdges) != 1 {
		return model.NewConfigurationError(flow.Name, "", "node_args_from_first requires exactly one starting edge")
	}
	to := startingEdges[0].NodesTo
	if len(to) != 1 || !to[0].IsTask() {
		return model.NewConfigurationError(flow.Name, "", "node_args_from_first requires the starting edge's nodes_to to contain exactly one task")
	}
	return nil
}

// checkPropagationLists enforces: every name in a list-form propagation
// flag must be a sub-flow started by this flow (present in some edge's
// nodes_to) and also referenced in some edge's nodes_from (so replies can
// be delivered back).
func checkPropagationLists(flow *model.Flow) error {
	sources := allSourceNodes(flow)
	destinations := allDestinationNodes(flow)

	flags := []model.PropagationFlag{
		flow.PropagateNodeArgs, flow.PropagateParent, flow.PropagateParentFailures,
		flow.PropagateFinished, flow.PropagateCompoundFinished,
		flow.PropagateFailures, flow.PropagateCompoundFailures,
	}
	for _, flag := range flags {
		if flag.Kind != model.PropagationList {
			continue
		}
		for _, name := range flag.Names {
			if !destinations[name] {
				return model.NewConfigurationError(flow.Name, name, "propagation flag names a sub-flow not started by this flow")
			}
			if !sources[name] {
				return model.NewConfigurationError(flow.Name, name, "propagation flag names a sub-flow never referenced in an edge's nodes_from")
			}
		}
	}
	return nil
}

// checkPropagateFailuresCaught enforces: if propagate_failures lists a
// node, some failure descriptor must be able to catch that node's failure.
func checkPropagateFailuresCaught(flow *model.Flow) error {
	if flow.PropagateFailures.Kind != model.PropagationList {
		return nil
	}
	waiting := make(map[string]bool)
	if flow.Failures != nil {
		for _, n := range flow.Failures.AllWaitingNodes() {
			waiting[n] = true
		}
	}
	for _, name := range flow.PropagateFailures.Names {
		if !waiting[name] {
			return model.NewConfigurationError(flow.Name, name, "propagate_failures names a node with no failure descriptor that can catch it")
		}
	}
	return nil
}

// checkStrategyResolves enforces that a flow's named scheduling strategy
// is one strategy.Build actually knows how to construct, catching a typo'd
// or unimplemented strategy name at check time rather than at dispatch.
func checkStrategyResolves(flow *model.Flow) error {
	if flow.Strategy.Name == "" {
		return nil
	}
	if _, err := strategy.Build(flow.Strategy.Name, flow.Strategy.Args); err != nil {
		return model.NewConfigurationError(flow.Name, "", err.Error())
	}
	return nil
}

// checkTaskClassDivergence warns when tasks sharing a TaskClass diverge on
// output_schema, max_retry or retry_countdown.
func checkTaskClassDivergence(sys *config.System) []string {
	var warnings []string
	for _, tc := range sys.TaskClasses.All() {
		if len(tc.Tasks) < 2 {
			continue
		}
		first := tc.Tasks[0]
		for _, t := range tc.Tasks[1:] {
			if t.OutputSchema != first.OutputSchema {
				warnings = append(warnings, fmt.Sprintf("task class %s: output_schema diverges between %s and %s", tc.ClassName, first.Name, t.Name))
			}
			if t.MaxRetry != first.MaxRetry {
				warnings = append(warnings, fmt.Sprintf("task class %s: max_retry diverges between %s and %s", tc.ClassName, first.Name, t.Name))
			}
			if t.RetryCountdown != first.RetryCountdown {
				warnings = append(warnings, fmt.Sprintf("task class %s: retry_countdown diverges between %s and %s", tc.ClassName, first.Name, t.Name))
			}
		}
	}
	return warnings
}
