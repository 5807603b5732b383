package config

import (
	"fmt"
	"time"

	"flowc/pkg/model"
)

func parseCacheConfig(dict map[string]interface{}, entityName string) (model.CacheConfig, error) {
	cc := model.CacheConfig{EntityName: entityName}
	if name, ok := dict["name"].(string); ok {
		cc.Name = name
	}
	if importPath, ok := dict["import"].(string); ok {
		cc.ImportPath = importPath
	}
	if opts, ok := dict["options"].(map[string]interface{}); ok {
		cc.Options = opts
	}
	return cc, nil
}

func parseDuration(raw interface{}) (*time.Duration, error) {
	switch v := raw.(type) {
	case int:
		d := time.Duration(v) * time.Second
		return &d, nil
	case float64:
		d := time.Duration(v) * time.Second
		return &d, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("invalid duration value %v (%T)", raw, raw)
	}
}
