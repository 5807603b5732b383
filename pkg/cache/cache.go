// Package cache implements the result-cache library of spec.md §4.J: five
// bounded eviction policies (FIFO, LIFO, LRU and MRU sharing one
// O(1)-amortised map+list core, RR keeping a flat key vector), plus the
// two key shapes the runtime needs
// (a bare 1-tuple for async-result handles, and a composed 3-tuple for
// per-task storage results).
//
// None of these types are safe for concurrent use; the contract is serial
// access per instance, exactly as spec.md §5 "Concurrency & resources"
// states.
package cache

import (
	"container/list"
	"math/rand"

	"flowc/pkg/model"
)

// Policy selects the eviction strategy a Cache enforces on overflow.
type Policy int

const (
	FIFO Policy = iota
	LIFO
	LRU
	MRU
	RR
)

// Cache is a bounded store keyed by a single opaque item id.
type Cache interface {
	// Add inserts item under id, evicting per policy if at capacity. A
	// zero-capacity cache accepts Add as a no-op.
	Add(id string, item interface{})
	// Get returns the stored item, or model.ErrCacheMiss if absent.
	Get(id string) (interface{}, error)
}

type entry struct {
	id    string
	value interface{}
	elem  *list.Element
}

// boundedCache is the shared FIFO/LIFO/LRU/MRU core: a map for O(1) lookup
// plus a doubly-linked list recording insertion/access order.
type boundedCache struct {
	policy   Policy
	capacity int
	entries  map[string]*entry
	order    *list.List // front = most-recently-inserted-or-touched
}

// New constructs a Cache enforcing policy with the given capacity.
// capacity == 0 yields a cache that never stores anything and always
// misses.
func New(policy Policy, capacity int) Cache {
	if policy == RR {
		return newRandomCache(capacity)
	}
	return &boundedCache{
		policy:   policy,
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
}

func (c *boundedCache) Add(id string, item interface{}) {
	if c.capacity == 0 {
		return
	}

	if existing, ok := c.entries[id]; ok {
		existing.value = item
		return
	}

	if len(c.entries) >= c.capacity {
		c.evict()
	}

	e := &entry{id: id, value: item}
	e.elem = c.order.PushFront(e)
	c.entries[id] = e
}

func (c *boundedCache) Get(id string) (interface{}, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, model.ErrCacheMiss
	}
	if c.policy == LRU || c.policy == MRU {
		c.touch(e)
	}
	return e.value, nil
}

// touch moves e to the front of the order list, marking it
// most-recently-used for LRU/MRU purposes.
func (c *boundedCache) touch(e *entry) {
	c.order.MoveToFront(e.elem)
}

func (c *boundedCache) evict() {
	var victim *list.Element
	switch c.policy {
	case FIFO, LRU:
		victim = c.order.Back()
	case LIFO, MRU:
		victim = c.order.Front()
	}
	if victim == nil {
		return
	}
	c.order.Remove(victim)
	delete(c.entries, victim.Value.(*entry).id)
}

// randomCache implements RR: on overflow it evicts a uniformly random key
// from a flat key vector, kept O(1) via swap-with-last removal.
type randomCache struct {
	capacity int
	entries  map[string]interface{}
	keys     []string
	indexOf  map[string]int
}

func newRandomCache(capacity int) *randomCache {
	return &randomCache{
		capacity: capacity,
		entries:  make(map[string]interface{}),
		indexOf:  make(map[string]int),
	}
}

func (c *randomCache) Add(id string, item interface{}) {
	if c.capacity == 0 {
		return
	}
	if _, ok := c.entries[id]; ok {
		c.entries[id] = item
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictRandom()
	}
	c.entries[id] = item
	c.indexOf[id] = len(c.keys)
	c.keys = append(c.keys, id)
}

func (c *randomCache) Get(id string) (interface{}, error) {
	v, ok := c.entries[id]
	if !ok {
		return nil, model.ErrCacheMiss
	}
	return v, nil
}

func (c *randomCache) evictRandom() {
	if len(c.keys) == 0 {
		return
	}
	i := rand.Intn(len(c.keys))
	victim := c.keys[i]
	last := len(c.keys) - 1
	c.keys[i] = c.keys[last]
	c.indexOf[c.keys[i]] = i
	c.keys = c.keys[:last]
	delete(c.entries, victim)
	delete(c.indexOf, victim)
}

// KeyedCache wraps a Cache with the 3-tuple key
// (item_id, task_name, flow_name) used by per-task storage result caches,
// composing the tuple into the single string key the underlying Cache
// expects.
type KeyedCache struct {
	inner Cache
}

// NewKeyedCache wraps inner for 3-tuple keyed access.
func NewKeyedCache(inner Cache) *KeyedCache {
	return &KeyedCache{inner: inner}
}

// Add inserts item under the composed key.
func (k *KeyedCache) Add(itemID, taskName, flowName string, item interface{}) {
	k.inner.Add(composeKey(itemID, taskName, flowName), item)
}

// Get reads the item stored under the composed key.
func (k *KeyedCache) Get(itemID, taskName, flowName string) (interface{}, error) {
	return k.inner.Get(composeKey(itemID, taskName, flowName))
}

func composeKey(itemID, taskName, flowName string) string {
	return itemID + "\x00" + taskName + "\x00" + flowName
}
