package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
	"flowc/pkg/model"
)

func TestLRUEviction(t *testing.T) {
	c := New(LRU, 3)
	c.Add("1", "a")
	c.Add("2", "b")
	c.Add("3", "c")
	_, err := c.Get("1")
	require.NoError(t, err)
	c.Add("4", "d")

	_, err = c.Get("1")
	require.NoError(t, err, "recently touched key should survive eviction")
	_, err = c.Get("2")
	require.ErrorIs(t, err, model.ErrCacheMiss)
	_, err = c.Get("3")
	require.NoError(t, err)
	_, err = c.Get("4")
	require.NoError(t, err)
}

func TestMRUEviction(t *testing.T) {
	c := New(MRU, 3)
	c.Add("1", "a")
	c.Add("2", "b")
	c.Add("3", "c")
	_, err := c.Get("1")
	require.NoError(t, err)
	c.Add("4", "d")

	_, err = c.Get("1")
	require.ErrorIs(t, err, model.ErrCacheMiss, "most-recently-touched key should be evicted")
}

func TestFIFOEviction(t *testing.T) {
	c := New(FIFO, 2)
	c.Add("1", "a")
	c.Add("2", "b")
	c.Add("3", "c")

	_, err := c.Get("1")
	require.ErrorIs(t, err, model.ErrCacheMiss)
	_, err = c.Get("2")
	require.NoError(t, err)
	_, err = c.Get("3")
	require.NoError(t, err)
}

func TestLIFOEviction(t *testing.T) {
	c := New(LIFO, 2)
	c.Add("1", "a")
	c.Add("2", "b")
	c.Add("3", "c")

	_, err := c.Get("2")
	require.ErrorIs(t, err, model.ErrCacheMiss)
	_, err = c.Get("1")
	require.NoError(t, err)
	_, err = c.Get("3")
	require.NoError(t, err)
}

func TestZeroCapacityAlwaysMisses(t *testing.T) {
	c := New(LRU, 0)
	c.Add("1", "a")
	_, err := c.Get("1")
	require.ErrorIs(t, err, model.ErrCacheMiss)
}

func TestRRStaysWithinCapacity(t *testing.T) {
	c := New(RR, 2)
	c.Add("1", "a")
	c.Add("2", "b")
	c.Add("3", "c")

	hits := 0
	for _, id := range []string{"1", "2", "3"} {
		if _, err := c.Get(id); err == nil {
			hits++
		}
	}
	require.Equal(t, 2, hits)
}

func TestKeyedCache(t *testing.T) {
	k := NewKeyedCache(New(LRU, 4))
	k.Add("item1", "Task1", "flow1", "result-a")
	k.Add("item1", "Task2", "flow1", "result-b")

	v, err := k.Get("item1", "Task1", "flow1")
	require.NoError(t, err)
	require.Equal(t, "result-a", v)

	_, err = k.Get("item1", "Task1", "flow2")
	require.ErrorIs(t, err, model.ErrCacheMiss)
}
