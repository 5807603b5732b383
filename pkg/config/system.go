// Package config implements the two-pass YAML loader of spec.md §4.F: a
// declaration pass over the node/storage file followed by a definition
// pass over one or more flow-definition files, assembling a validated
// System.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"flowc/internal/appconfig"
	"flowc/pkg/model"
)

// GlobalConfig is the node file's optional `global` section.
type GlobalConfig struct {
	PredicatesModule       string
	DefaultTaskQueue       string
	DefaultDispatcherQueue string
	Trace                  bool
}

// System is the fully assembled, declared configuration: every Task,
// Storage, Flow and the TaskClass/leaf-predicate registries backing them.
// It is built incrementally across the two passes and is safe to read
// concurrently once Load returns.
type System struct {
	Tasks       map[string]*model.Task
	TaskOrder   []string
	Storages    map[string]*model.Storage
	StorageOrder []string
	Flows       map[string]*model.Flow
	FlowOrder   []string
	TaskClasses *model.TaskClassRegistry
	Global      GlobalConfig
}

func newSystem() *System {
	return &System{
		Tasks:       make(map[string]*model.Task),
		Storages:    make(map[string]*model.Storage),
		Flows:       make(map[string]*model.Flow),
		TaskClasses: model.NewTaskClassRegistry(),
	}
}

// Load runs the full two-pass assembly: nodesPath declares tasks,
// storages and flow names; flowPaths defines each flow's edges and
// per-flow configuration. registry resolves leaf-predicate names used by
// edge conditions.
func Load(nodesPath string, flowPaths []string, registry *model.Registry) (*System, error) {
	sys := newSystem()

	if err := sys.loadNodes(nodesPath); err != nil {
		return nil, err
	}

	for _, path := range flowPaths {
		if err := sys.loadFlowFile(path, registry); err != nil {
			return nil, err
		}
	}

	if err := sys.postParseCheck(); err != nil {
		return nil, err
	}

	return sys, nil
}

func readYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// postParseCheck enforces spec.md §4.F's two structural rules: no flow has
// zero edges, and every flow has at least one starting edge. Flow.Validate
// already checks both; this walks every declared flow.
func (s *System) postParseCheck() error {
	for _, name := range s.FlowOrder {
		flow := s.Flows[name]
		if len(flow.Edges) == 0 {
			return model.NewConfigurationErrorWrap(name, "", model.ErrFlowHasNoEdges)
		}
		if err := flow.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// asStringList converts a YAML-decoded list of scalars into []string.
func asStringList(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string list entry, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func expandQueue(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	expanded, err := appconfig.ExpandQueueName(name)
	if err != nil {
		return "", &model.ConfigurationError{Message: err.Error()}
	}
	return expanded, nil
}
