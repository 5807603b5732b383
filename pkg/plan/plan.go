// Package plan implements the deterministic plan emitter of spec.md §4.H:
// a pure function from a validated config.System to a serialisable
// dispatcher plan artifact.
package plan

import (
	"encoding/json"
	"sort"
	"strconv"

	"flowc/pkg/config"
	"flowc/pkg/model"
	"flowc/pkg/strategy"
)

// StrategyEntry is the emitted scheduling strategy binding for one flow:
// the name the dispatcher resolves via strategy.Build, plus its static
// configuration arguments.
type StrategyEntry struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// EdgeEntry is one row of a flow's edge table: a condition function
// reference plus its emitted source, and the optional foreach binding.
type EdgeEntry struct {
	From                []string `json:"from"`
	To                  []string `json:"to"`
	Condition           string   `json:"condition"`
	ConditionStr        string   `json:"condition_str"`
	Foreach             string   `json:"foreach,omitempty"`
	ForeachStr          string   `json:"foreach_str,omitempty"`
	ForeachPropagateResult bool  `json:"foreach_propagate_result,omitempty"`
}

// FailureEntry mirrors one emitted FailureNode, in reverse-allocation order.
type FailureEntry struct {
	Traversed        []string `json:"traversed"`
	Fallback         []string `json:"fallback,omitempty"`
	FallbackIsTrue   bool     `json:"fallback_is_true,omitempty"`
	PropagateFailure bool     `json:"propagate_failure,omitempty"`
}

// FlowPlan is the per-flow section of the plan artifact.
type FlowPlan struct {
	Edges       []EdgeEntry          `json:"edges"`
	NowaitNodes []string             `json:"nowait_nodes"`
	MaxRetry    int                  `json:"max_retry"`
	RetryCountdown int               `json:"retry_countdown"`
	ThrottleSeconds float64          `json:"throttle_seconds,omitempty"`
	Strategy    *StrategyEntry       `json:"strategy,omitempty"`
	Propagation map[string]interface{} `json:"propagation"`
	Failures    []FailureEntry       `json:"failures,omitempty"`
}

// Plan is the full dispatcher plan artifact of spec.md §4.H.
type Plan struct {
	TaskQueues             map[string]string   `json:"task_queues"`
	DispatcherQueues       map[string]string   `json:"dispatcher_queues"`
	StorageTaskName        map[string]string   `json:"storage_task_name"`
	Task2StorageMapping    map[string]string   `json:"task2storage_mapping"`
	Storage2InstanceMapping map[string]string  `json:"storage2instance_mapping"`
	Storage2StorageCache   map[string]string   `json:"storage2storage_cache,omitempty"`
	AsyncResultCache       map[string]string   `json:"async_result_cache,omitempty"`
	TaskMaxRetry           map[string]int      `json:"task_max_retry"`
	TaskRetryCountdown     map[string]int      `json:"task_retry_countdown"`
	TaskStorageReadonly    map[string]bool     `json:"task_storage_readonly,omitempty"`
	ThrottleTasks          map[string]float64  `json:"throttle_tasks,omitempty"`
	Flows                  map[string]*FlowPlan `json:"flows"`
}

// Build runs the pure emitter over sys, walking tasks, storages, flows and
// edges in declaration order; each flow's nowait nodes are emitted sorted.
// It returns an error if a flow names a scheduling strategy strategy.Build
// cannot resolve.
func Build(sys *config.System) (*Plan, error) {
	p := &Plan{
		TaskQueues:              map[string]string{},
		DispatcherQueues:        map[string]string{},
		StorageTaskName:         map[string]string{},
		Task2StorageMapping:     map[string]string{},
		Storage2InstanceMapping: map[string]string{},
		Storage2StorageCache:    map[string]string{},
		AsyncResultCache:        map[string]string{},
		TaskMaxRetry:            map[string]int{},
		TaskRetryCountdown:      map[string]int{},
		TaskStorageReadonly:     map[string]bool{},
		ThrottleTasks:           map[string]float64{},
		Flows:                   map[string]*FlowPlan{},
	}

	for _, name := range sys.TaskOrder {
		task := sys.Tasks[name]
		p.TaskQueues[name] = task.QueueName
		p.StorageTaskName[name] = task.StorageTaskName
		p.TaskMaxRetry[name] = task.MaxRetry
		p.TaskRetryCountdown[name] = task.RetryCountdown
		if task.StorageReadonly {
			p.TaskStorageReadonly[name] = true
		}
		if task.Throttling != nil {
			p.ThrottleTasks[name] = task.Throttling.Seconds()
		}
		if task.Storage != nil {
			p.Task2StorageMapping[name] = task.Storage.Name
		}
	}

	for _, name := range sys.StorageOrder {
		storage := sys.Storages[name]
		p.Storage2InstanceMapping[name] = storage.ClassName
		if storage.CacheConfig.Name != "" {
			p.Storage2StorageCache[name] = storage.CacheConfig.Name
		}
	}

	for _, name := range sys.FlowOrder {
		flow := sys.Flows[name]
		p.DispatcherQueues[name] = flow.QueueName
		if flow.CacheConfig.Name != "" {
			p.AsyncResultCache[name] = flow.CacheConfig.Name
		}
		fp, err := buildFlowPlan(flow)
		if err != nil {
			return nil, err
		}
		p.Flows[name] = fp
	}

	return p, nil
}

func buildFlowPlan(flow *model.Flow) (*FlowPlan, error) {
	fp := &FlowPlan{
		MaxRetry:       flow.MaxRetry,
		RetryCountdown: flow.RetryCountdown,
		Propagation:    propagationMap(flow),
	}
	if flow.Throttling != nil {
		fp.ThrottleSeconds = flow.Throttling.Seconds()
	}
	if flow.Strategy.Name != "" {
		if _, err := strategy.Build(flow.Strategy.Name, flow.Strategy.Args); err != nil {
			return nil, model.NewConfigurationError(flow.Name, "", err.Error())
		}
		fp.Strategy = &StrategyEntry{Name: flow.Strategy.Name, Args: flow.Strategy.Args}
	}

	for _, n := range flow.NowaitNodes {
		fp.NowaitNodes = append(fp.NowaitNodes, n.NodeName())
	}
	sort.Strings(fp.NowaitNodes)

	for idx, edge := range flow.Edges {
		fp.Edges = append(fp.Edges, buildEdgeEntry(flow.Name, idx, edge))
	}

	if flow.Failures != nil {
		fp.Failures = emitFailures(flow.Failures)
	}

	return fp, nil
}

func buildEdgeEntry(flowName string, idx int, edge *model.Edge) EdgeEntry {
	entry := EdgeEntry{
		Condition: conditionFuncName(flowName, idx),
	}
	for _, n := range edge.NodesFrom {
		entry.From = append(entry.From, n.NodeName())
	}
	for _, n := range edge.NodesTo {
		entry.To = append(entry.To, n.NodeName())
	}
	if edge.Predicate != nil {
		entry.ConditionStr = edge.Predicate.ToSource()
	}
	if edge.Foreach != nil {
		entry.Foreach = foreachFuncName(flowName, idx)
		entry.ForeachStr = edge.Foreach.Function
		entry.ForeachPropagateResult = edge.Foreach.PropagateResult
	}
	return entry
}

func conditionFuncName(flowName string, idx int) string {
	return "_condition_" + flowName + "_" + strconv.Itoa(idx)
}

func foreachFuncName(flowName string, idx int) string {
	return "_foreach_" + flowName + "_" + strconv.Itoa(idx)
}

func propagationMap(flow *model.Flow) map[string]interface{} {
	encode := func(f model.PropagationFlag) interface{} {
		switch f.Kind {
		case model.PropagationTrue:
			return true
		case model.PropagationList:
			return f.Names
		default:
			return false
		}
	}
	return map[string]interface{}{
		"propagate_node_args":         encode(flow.PropagateNodeArgs),
		"propagate_parent":            encode(flow.PropagateParent),
		"propagate_parent_failures":   encode(flow.PropagateParentFailures),
		"propagate_finished":          encode(flow.PropagateFinished),
		"propagate_compound_finished": encode(flow.PropagateCompoundFinished),
		"propagate_failures":          encode(flow.PropagateFailures),
		"propagate_compound_failures": encode(flow.PropagateCompoundFailures),
	}
}

// emitFailures follows the FailureLink chain from the last allocated node,
// so the result is in reverse-allocation order (newest first).
func emitFailures(graph *model.FailureGraph) []FailureEntry {
	var entries []FailureEntry
	for n := graph.LastAllocated; n != nil; n = n.FailureLink {
		entries = append(entries, FailureEntry{
			Traversed:        n.Traversed,
			Fallback:         n.Fallback,
			FallbackIsTrue:   n.FallbackIsTrue,
			PropagateFailure: n.PropagateFailure,
		})
	}
	return entries
}

// Marshal serialises p deterministically: map keys in Go's json package
// are already sorted lexicographically, and every slice here is built in
// declaration, sorted or failure-link order, so two runs over an equivalent System
// produce byte-identical output.
func (p *Plan) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
