// Package predicate provides the built-in, pluggable leaf predicates over
// a stored task message and flow node_args (spec.md §4.B/§4.C), backed by
// cached compiled github.com/expr-lang/expr programs.
package predicate

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprCache is a thread-safe LRU cache of compiled expr-lang programs,
// generalised from the teacher's ConditionCache (condition_cache.go) to
// serve every built-in leaf predicate rather than a single workflow-edge
// condition string.
type ExprCache struct {
	capacity int
	mu       sync.RWMutex
	cache    map[string]*list.Element
	lruList  *list.List
}

type exprCacheEntry struct {
	key     string
	program *vm.Program
}

// NewExprCache creates a cache holding up to capacity compiled programs.
// capacity <= 0 defaults to 100, matching the teacher's default.
func NewExprCache(capacity int) *ExprCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ExprCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

func (c *ExprCache) get(key string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*exprCacheEntry).program, true
	}
	return nil, false
}

func (c *ExprCache) put(key string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*exprCacheEntry).program = program
		return
	}
	elem := c.lruList.PushFront(&exprCacheEntry{key: key, program: program})
	c.cache[key] = elem
	if c.lruList.Len() > c.capacity {
		oldest := c.lruList.Back()
		c.lruList.Remove(oldest)
		delete(c.cache, oldest.Value.(*exprCacheEntry).key)
	}
}

// CompileAndCache compiles source against env's shape once, returning the
// cached program on subsequent calls with the same source string.
func (c *ExprCache) CompileAndCache(source string, env interface{}) (*vm.Program, error) {
	if program, ok := c.get(source); ok {
		return program, nil
	}
	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, err
	}
	c.put(source, program)
	return program, nil
}

// Eval compiles (or reuses) source and runs it against env.
func (c *ExprCache) Eval(source string, env map[string]interface{}) (interface{}, error) {
	program, err := c.CompileAndCache(source, env)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// Len reports the number of currently cached programs.
func (c *ExprCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lruList.Len()
}
