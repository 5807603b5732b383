// Package storageref provides two reference Storage adapters — Redis and
// Postgres — implementing the contract a real host embeds behind
// spec.md §3 Storage: store and retrieve a task's result keyed by
// (item_id, task_name, flow_name), the same 3-tuple pkg/cache.KeyedCache
// uses in front of it.
package storageref

import "context"

// Adapter is the runtime contract a concrete Storage binding satisfies.
// Connect/Disconnect are opened by the host on first use and closed at
// host shutdown, per spec.md §5 "Resources".
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Store(ctx context.Context, itemID, taskName, flowName string, value interface{}) error
	Retrieve(ctx context.Context, itemID, taskName, flowName string) (interface{}, error)
	Delete(ctx context.Context, itemID, taskName, flowName string) error
}

var (
	_ Adapter = (*RedisStorage)(nil)
	_ Adapter = (*PostgresStorage)(nil)
)

func compositeKey(itemID, taskName, flowName string) string {
	return itemID + ":" + taskName + ":" + flowName
}
