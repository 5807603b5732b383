package config

import (
	"fmt"

	"flowc/pkg/model"
)

var nodesFileTopKeys = map[string]bool{
	"tasks": true, "flows": true, "storages": true, "global": true,
}

// loadNodes runs spec.md §4.F's declaration pass: storages, then the
// `global` section, then tasks (self-registering into storages and
// TaskClasses), then empty-edged Flow placeholders for every name in
// `flows`.
func (s *System) loadNodes(path string) error {
	doc, err := readYAMLFile(path)
	if err != nil {
		return err
	}

	for key := range doc {
		if !nodesFileTopKeys[key] {
			// unknown top-level keys warn, not error, per spec.md §4.F.
			fmt.Printf("warning: unknown top-level key %q in %s\n", key, path)
		}
	}

	if err := s.loadStorages(doc["storages"]); err != nil {
		return err
	}
	if err := s.loadGlobal(doc["global"]); err != nil {
		return err
	}
	if err := s.loadTasks(doc["tasks"]); err != nil {
		return err
	}

	flowNames, err := asStringList(doc["flows"])
	if err != nil {
		return fmt.Errorf("parsing 'flows': %w", err)
	}
	if len(flowNames) == 0 {
		return model.NewConfigurationError("", "", "'flows' must list at least one flow name")
	}
	for _, name := range flowNames {
		if _, exists := s.Flows[name]; exists {
			return model.NewConfigurationErrorWrap(name, "", model.ErrDuplicateFlowDefinition)
		}
		flow := &model.Flow{Name: name}
		s.Flows[name] = flow
		s.FlowOrder = append(s.FlowOrder, name)
	}

	return nil
}

func (s *System) loadStorages(raw interface{}) error {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return model.NewConfigurationError("", "", "'storages' must be a list")
	}
	for _, item := range list {
		dict, ok := item.(map[string]interface{})
		if !ok {
			return model.NewConfigurationError("", "", "each storage entry must be a dict")
		}
		storage := &model.Storage{}
		if name, ok := dict["name"].(string); ok {
			storage.Name = name
		}
		if importPath, ok := dict["import"].(string); ok {
			storage.ImportPath = importPath
		}
		if className, ok := dict["class_name"].(string); ok {
			storage.ClassName = className
		} else {
			storage.ClassName = storage.Name
		}
		if cfg, ok := dict["configuration"].(map[string]interface{}); ok {
			storage.Configuration = cfg
		}
		if cache, ok := dict["cache"].(map[string]interface{}); ok {
			cc, err := parseCacheConfig(cache, storage.Name)
			if err != nil {
				return err
			}
			storage.CacheConfig = cc
		}

		if err := storage.Validate(); err != nil {
			return err
		}
		if _, exists := s.Storages[storage.Name]; exists {
			return model.NewConfigurationError("", storage.Name, "duplicate storage definition")
		}
		s.Storages[storage.Name] = storage
		s.StorageOrder = append(s.StorageOrder, storage.Name)
	}
	return nil
}

func (s *System) loadTasks(raw interface{}) error {
	list, ok := raw.([]interface{})
	if !ok {
		return model.NewConfigurationError("", "", "'tasks' must be a list")
	}
	for _, item := range list {
		dict, ok := item.(map[string]interface{})
		if !ok {
			return model.NewConfigurationError("", "", "each task entry must be a dict")
		}
		task := &model.Task{}
		if name, ok := dict["name"].(string); ok {
			task.Name = name
		}
		if importPath, ok := dict["import"].(string); ok {
			task.ImportPath = importPath
		}
		if className, ok := dict["class_name"].(string); ok {
			task.ClassName = className
		}
		if storageName, ok := dict["storage"].(string); ok {
			storage, found := s.Storages[storageName]
			if !found {
				return model.NewUnknownStorageError(storageName, "")
			}
			storage.RegisterTask(task)
		}
		if readonly, ok := dict["storage_readonly"].(bool); ok {
			task.StorageReadonly = readonly
		}
		if stName, ok := dict["storage_task_name"].(string); ok {
			task.StorageTaskName = stName
		}
		if schema, ok := dict["output_schema"].(string); ok {
			task.OutputSchema = schema
		}
		if maxRetry, ok := asInt(dict["max_retry"]); ok {
			task.MaxRetry = maxRetry
		}
		if countdown, ok := asInt(dict["retry_countdown"]); ok {
			task.RetryCountdown = countdown
		}
		if queue, ok := dict["queue"].(string); ok {
			expanded, err := expandQueue(queue)
			if err != nil {
				return err
			}
			task.QueueName = expanded
		} else if s.Global.DefaultTaskQueue != "" {
			task.QueueName = s.Global.DefaultTaskQueue
		}
		if throttling, ok := dict["throttling"]; ok {
			d, err := parseDuration(throttling)
			if err != nil {
				return err
			}
			task.Throttling = d
		}

		warnings, err := task.Validate()
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}

		s.TaskClasses.Resolve(task.ClassName, task.ImportPath, task)

		if _, exists := s.Tasks[task.Name]; exists {
			return model.NewConfigurationError("", task.Name, "duplicate task definition")
		}
		s.Tasks[task.Name] = task
		s.TaskOrder = append(s.TaskOrder, task.Name)
	}
	return nil
}

func (s *System) loadGlobal(raw interface{}) error {
	dict, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if v, ok := dict["predicates_module"].(string); ok {
		s.Global.PredicatesModule = v
	}
	if v, ok := dict["default_task_queue"].(string); ok {
		s.Global.DefaultTaskQueue = v
	}
	if v, ok := dict["default_dispatcher_queue"].(string); ok {
		s.Global.DefaultDispatcherQueue = v
	}
	if v, ok := dict["trace"].(bool); ok {
		s.Global.Trace = v
	}
	return nil
}

func asInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
