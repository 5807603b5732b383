package config

import (
	"fmt"

	"flowc/pkg/model"
)

var flowDefKnownKeys = map[string]bool{
	"name": true, "edges": true, "failures": true, "nowait": true, "cache": true,
	"sampling": true, "throttling": true, "node_args_from_first": true, "queue": true,
	"max_retry": true, "retry_countdown": true, "strategy": true,
	"propagate_node_args": true, "propagate_parent": true, "propagate_parent_failures": true,
	"propagate_finished": true, "propagate_compound_finished": true,
	"propagate_failures": true, "propagate_compound_failures": true,
}

// loadFlowFile runs spec.md §4.F's definition pass for a single flow file:
// for every flow-definitions entry, look up the already-declared Flow and
// fill in its edges and per-flow configuration. A flow defined twice is an
// error.
func (s *System) loadFlowFile(path string, registry *model.Registry) error {
	doc, err := readYAMLFile(path)
	if err != nil {
		return err
	}

	rawDefs, ok := doc["flow-definitions"]
	if !ok {
		return model.NewConfigurationError("", "", fmt.Sprintf("%s: missing 'flow-definitions' key", path))
	}
	defs, ok := rawDefs.([]interface{})
	if !ok {
		return model.NewConfigurationError("", "", fmt.Sprintf("%s: 'flow-definitions' must be a list", path))
	}

	for _, rawDef := range defs {
		def, ok := rawDef.(map[string]interface{})
		if !ok {
			return model.NewConfigurationError("", "", "each flow-definitions entry must be a dict")
		}
		for key := range def {
			if !flowDefKnownKeys[key] {
				return model.NewConfigurationError("", "", fmt.Sprintf("unknown key %q in flow definition", key))
			}
		}

		name, _ := def["name"].(string)
		flow, ok := s.Flows[name]
		if !ok {
			return model.NewUnknownFlowError(name, "")
		}
		if len(flow.Edges) > 0 {
			return model.NewConfigurationErrorWrap(name, "", model.ErrDuplicateFlowDefinition)
		}

		if err := s.defineFlow(flow, def, registry); err != nil {
			return err
		}
	}

	return nil
}

func (s *System) defineFlow(flow *model.Flow, def map[string]interface{}, registry *model.Registry) error {
	if v, ok := def["node_args_from_first"].(bool); ok {
		flow.NodeArgsFromFirst = v
	}
	if v, ok := def["queue"].(string); ok {
		expanded, err := expandQueue(v)
		if err != nil {
			return err
		}
		flow.QueueName = expanded
	} else if s.Global.DefaultDispatcherQueue != "" {
		flow.QueueName = s.Global.DefaultDispatcherQueue
	}
	if v, ok := asInt(def["max_retry"]); ok {
		flow.MaxRetry = v
	}
	if v, ok := asInt(def["retry_countdown"]); ok {
		flow.RetryCountdown = v
	}
	if v, ok := def["throttling"]; ok {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		flow.Throttling = d
	}
	if v, ok := def["cache"].(map[string]interface{}); ok {
		cc, err := parseCacheConfig(v, flow.Name)
		if err != nil {
			return err
		}
		flow.CacheConfig = cc
	}
	if v, ok := def["strategy"].(map[string]interface{}); ok {
		name, _ := v["name"].(string)
		args, _ := v["args"].(map[string]interface{})
		flow.Strategy = model.StrategyBinding{Name: name, Args: args}
	}

	for _, pair := range []struct {
		key string
		dst *model.PropagationFlag
	}{
		{"propagate_node_args", &flow.PropagateNodeArgs},
		{"propagate_parent", &flow.PropagateParent},
		{"propagate_parent_failures", &flow.PropagateParentFailures},
		{"propagate_finished", &flow.PropagateFinished},
		{"propagate_compound_finished", &flow.PropagateCompoundFinished},
		{"propagate_failures", &flow.PropagateFailures},
		{"propagate_compound_failures", &flow.PropagateCompoundFailures},
	} {
		flag, err := model.ParsePropagationFlag(def[pair.key])
		if err != nil {
			return withFlowName(err, flow.Name)
		}
		*pair.dst = flag
	}

	edgesRaw, ok := def["edges"].([]interface{})
	if !ok {
		return model.NewConfigurationError(flow.Name, "", "'edges' must be a list")
	}
	for _, rawEdge := range edgesRaw {
		edgeDef, ok := rawEdge.(map[string]interface{})
		if !ok {
			return model.NewConfigurationError(flow.Name, "", "each edge must be a dict")
		}
		edge, err := s.buildEdge(flow, edgeDef, registry)
		if err != nil {
			return err
		}
		flow.Edges = append(flow.Edges, edge)
	}

	if nowaitRaw, ok := def["nowait"]; ok {
		names, err := asStringList(nowaitRaw)
		if err != nil {
			return withFlowName(err, flow.Name)
		}
		for _, name := range names {
			node, err := s.resolveNode(name)
			if err != nil {
				return withFlowName(model.NewUnknownTaskError(name, flow.Name), flow.Name)
			}
			flow.NowaitNodes = append(flow.NowaitNodes, node)
		}
	}

	if failuresRaw, ok := def["failures"]; ok {
		descriptors, err := parseFailureDescriptors(failuresRaw, flow.Name)
		if err != nil {
			return err
		}
		graph, err := model.ConstructFailureGraph(flow, descriptors)
		if err != nil {
			return err
		}
		flow.Failures = graph
	}

	return nil
}

func (s *System) buildEdge(flow *model.Flow, def map[string]interface{}, registry *model.Registry) (*model.Edge, error) {
	fromNames, err := asStringList(def["from"])
	if err != nil {
		return nil, withFlowName(err, flow.Name)
	}
	toNames, err := asStringList(def["to"])
	if err != nil {
		return nil, withFlowName(err, flow.Name)
	}
	if len(toNames) == 0 {
		return nil, model.NewConfigurationError(flow.Name, "", "edge 'to' must be non-empty")
	}

	nodesFrom := make([]model.Node, 0, len(fromNames))
	seen := make(map[string]bool, len(fromNames))
	for _, name := range fromNames {
		if seen[name] {
			return nil, model.NewConfigurationError(flow.Name, name, "task appears more than once in edge's nodes_from")
		}
		seen[name] = true
		node, err := s.resolveNode(name)
		if err != nil {
			return nil, model.NewUnknownTaskError(name, flow.Name)
		}
		nodesFrom = append(nodesFrom, node)
	}

	nodesTo := make([]model.Node, 0, len(toNames))
	for _, name := range toNames {
		node, err := s.resolveNode(name)
		if err != nil {
			return nil, model.NewUnknownTaskError(name, flow.Name)
		}
		nodesTo = append(nodesTo, node)
	}

	edge := &model.Edge{NodesFrom: nodesFrom, NodesTo: nodesTo, Flow: flow}

	if condRaw, ok := def["condition"].(map[string]interface{}); ok {
		pred, err := model.ConstructPredicate(condRaw, nodesFrom, flow, registry)
		if err != nil {
			return nil, err
		}
		edge.Predicate = pred
	} else {
		edge.Predicate = model.AlwaysTrue()
	}

	if foreachRaw, ok := def["foreach"].(map[string]interface{}); ok {
		fe := &model.Foreach{}
		if v, ok := foreachRaw["function"].(string); ok {
			fe.Function = v
		}
		if v, ok := foreachRaw["import_path"].(string); ok {
			fe.ImportPath = v
		}
		if v, ok := foreachRaw["propagate_result"].(bool); ok {
			fe.PropagateResult = v
		}
		edge.Foreach = fe
	}

	if err := edge.Check(); err != nil {
		return nil, err
	}
	if edge.Predicate != nil {
		if err := edge.Predicate.Check(); err != nil {
			return nil, err
		}
	}

	return edge, nil
}

// resolveNode looks up name as a Task first, then as a Flow (sub-flow
// reference), matching spec.md §4.D's node resolution order.
func (s *System) resolveNode(name string) (model.Node, error) {
	if t, ok := s.Tasks[name]; ok {
		return t, nil
	}
	if f, ok := s.Flows[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("node %q not declared", name)
}

func withFlowName(err error, flow string) error {
	if ce, ok := err.(*model.ConfigurationError); ok {
		if ce.Flow == "" {
			ce.Flow = flow
		}
		return ce
	}
	return model.NewConfigurationError(flow, "", err.Error())
}

func parseFailureDescriptors(raw interface{}, flowName string) ([]model.FailureDescriptor, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, model.NewConfigurationError(flowName, "", "'failures' must be a list")
	}
	descriptors := make([]model.FailureDescriptor, 0, len(list))
	for _, item := range list {
		dict, ok := item.(map[string]interface{})
		if !ok {
			return nil, model.NewConfigurationError(flowName, "", "each failure descriptor must be a dict")
		}
		nodes, err := asStringList(dict["nodes"])
		if err != nil {
			return nil, withFlowName(err, flowName)
		}
		desc := model.FailureDescriptor{Nodes: nodes}
		switch fb := dict["fallback"].(type) {
		case bool:
			desc.FallbackIsTrue = fb
		case []interface{}:
			names, err := asStringList(fb)
			if err != nil {
				return nil, withFlowName(err, flowName)
			}
			desc.Fallback = names
		case string:
			desc.Fallback = []string{fb}
		}
		if v, ok := dict["propagate_failure"].(bool); ok {
			desc.PropagateFailure = v
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}
