package predicate

import (
	"fmt"

	"flowc/pkg/model"
)

// the built-in leaf sources are fixed per operator; only the env values
// change per call, so each compiles exactly once and every subsequent
// evaluation is a cache hit.
const (
	fieldEqualSrc    = `message[key] == value`
	fieldGreaterSrc  = `message[key] > value`
	fieldLessSrc     = `message[key] < value`
	fieldContainsSrc = `contains(message[key], value)`
	nodeArgEqualSrc  = `nodeArgs[key] == value`
)

// RegisterBuiltins registers the dictionary-predicate family (fieldEqual,
// fieldGreater, fieldLess, fieldContains, nodeArgEqual) into registry,
// backed by cache. This is the home for pluggable leaves spec.md §1
// explicitly leaves out of core scope but a complete build needs at least
// one real family of them to exercise the registration contract end to
// end.
func RegisterBuiltins(registry *model.Registry, cache *ExprCache) {
	registry.Register(&model.LeafFunc{
		Name:            "fieldEqual",
		Params:          []string{"key", "value"},
		RequiresMessage: true,
		Call:            messageExprLeaf(cache, fieldEqualSrc),
	})
	registry.Register(&model.LeafFunc{
		Name:            "fieldGreater",
		Params:          []string{"key", "value"},
		RequiresMessage: true,
		Call:            messageExprLeaf(cache, fieldGreaterSrc),
	})
	registry.Register(&model.LeafFunc{
		Name:            "fieldLess",
		Params:          []string{"key", "value"},
		RequiresMessage: true,
		Call:            messageExprLeaf(cache, fieldLessSrc),
	})
	registry.Register(&model.LeafFunc{
		Name:            "fieldContains",
		Params:          []string{"key", "value"},
		RequiresMessage: true,
		Call:            messageExprLeaf(cache, fieldContainsSrc),
	})
	registry.Register(&model.LeafFunc{
		Name:             "nodeArgEqual",
		Params:           []string{"key", "value"},
		RequiresNodeArgs: true,
		Call:             nodeArgExprLeaf(cache, nodeArgEqualSrc),
	})
}

func messageExprLeaf(cache *ExprCache, source string) func(interface{}, map[string]interface{}, map[string]interface{}) (bool, error) {
	return func(message interface{}, _ map[string]interface{}, args map[string]interface{}) (bool, error) {
		asMap, _ := message.(map[string]interface{})
		if asMap == nil {
			asMap = map[string]interface{}{}
		}
		env := map[string]interface{}{
			"message": asMap,
			"key":     args["key"],
			"value":   args["value"],
		}
		return runBool(cache, source, env)
	}
}

func nodeArgExprLeaf(cache *ExprCache, source string) func(interface{}, map[string]interface{}, map[string]interface{}) (bool, error) {
	return func(_ interface{}, nodeArgs map[string]interface{}, args map[string]interface{}) (bool, error) {
		if nodeArgs == nil {
			nodeArgs = map[string]interface{}{}
		}
		env := map[string]interface{}{
			"nodeArgs": nodeArgs,
			"key":      args["key"],
			"value":    args["value"],
		}
		return runBool(cache, source, env)
	}
}

func runBool(cache *ExprCache, source string, env map[string]interface{}) (bool, error) {
	result, err := cache.Eval(source, env)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("predicate expression %q must evaluate to bool, got %T", source, result)
	}
	return b, nil
}
