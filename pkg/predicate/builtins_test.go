package predicate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"flowc/pkg/model"
)

func newTestRegistry() *model.Registry {
	r := model.NewRegistry()
	RegisterBuiltins(r, NewExprCache(0))
	return r
}

func TestFieldEqual(t *testing.T) {
	registry := newTestRegistry()
	fn, ok := registry.Lookup("fieldEqual")
	require.True(t, ok)

	message := map[string]interface{}{"k": "v"}
	args := map[string]interface{}{"key": "k", "value": "v"}

	got, err := fn.Call(message, nil, args)
	require.NoError(t, err)
	require.True(t, got)

	args["value"] = "other"
	got, err = fn.Call(message, nil, args)
	require.NoError(t, err)
	require.False(t, got)
}

func TestFieldGreater(t *testing.T) {
	registry := newTestRegistry()
	fn, _ := registry.Lookup("fieldGreater")

	message := map[string]interface{}{"score": 10}
	args := map[string]interface{}{"key": "score", "value": 5}

	got, err := fn.Call(message, nil, args)
	require.NoError(t, err)
	require.True(t, got)
}

func TestNodeArgEqual(t *testing.T) {
	registry := newTestRegistry()
	fn, _ := registry.Lookup("nodeArgEqual")

	nodeArgs := map[string]interface{}{"env": "prod"}
	args := map[string]interface{}{"key": "env", "value": "prod"}

	got, err := fn.Call(nil, nodeArgs, args)
	require.NoError(t, err)
	require.True(t, got)
}

func TestExprCacheReusesCompiledProgram(t *testing.T) {
	cache := NewExprCache(10)
	_, err := cache.Eval(fieldEqualSrc, map[string]interface{}{
		"message": map[string]interface{}{"k": "v"},
		"key":     "k",
		"value":   "v",
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	_, err = cache.Eval(fieldEqualSrc, map[string]interface{}{
		"message": map[string]interface{}{"k": "other"},
		"key":     "k",
		"value":   "v",
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len(), "same source should not grow the cache")
}
