package storageref

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	storage, err := NewRedisStorage("redis://" + mr.Addr())
	require.NoError(t, err)
	require.NoError(t, storage.Connect(context.Background()))
	t.Cleanup(func() { _ = storage.Disconnect(context.Background()) })
	return storage
}

func TestRedisStorageStoreAndRetrieve(t *testing.T) {
	storage := newTestRedisStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, "item1", "TaskA", "flow1", map[string]interface{}{"status": "ok"}))

	value, err := storage.Retrieve(ctx, "item1", "TaskA", "flow1")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"status": "ok"}, value)
}

func TestRedisStorageRetrieveMissReturnsNil(t *testing.T) {
	storage := newTestRedisStorage(t)
	value, err := storage.Retrieve(context.Background(), "missing", "TaskA", "flow1")
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestRedisStorageDelete(t *testing.T) {
	storage := newTestRedisStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, "item1", "TaskA", "flow1", "value"))
	require.NoError(t, storage.Delete(ctx, "item1", "TaskA", "flow1"))

	value, err := storage.Retrieve(ctx, "item1", "TaskA", "flow1")
	require.NoError(t, err)
	require.Nil(t, value)
}
