package storageref

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage is a reference Storage backed by a single Redis server,
// grounded in the teacher's RedisCache wrapper: parse the connection URL
// once, ping it on Connect, and keep the *redis.Client for the lifetime
// of the adapter.
type RedisStorage struct {
	addr     string
	password string
	db       int
	client   *redis.Client
}

// NewRedisStorage builds an adapter for the given "redis://host:port/db"
// style URL without opening a connection; call Connect to dial and
// healthcheck it.
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis storage url: %w", err)
	}
	return &RedisStorage{addr: opts.Addr, password: opts.Password, db: opts.DB}, nil
}

func (s *RedisStorage) Connect(ctx context.Context) error {
	s.client = redis.NewClient(&redis.Options{Addr: s.addr, Password: s.password, DB: s.db})
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis storage: %w", err)
	}
	return nil
}

func (s *RedisStorage) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Store marshals value as JSON and writes it under the item's composite
// key. Redis storage never expires task results on its own: callers that
// want a TTL should wrap this adapter rather than bake one in here, since
// spec.md's Storage contract says nothing about result lifetime.
func (s *RedisStorage) Store(ctx context.Context, itemID, taskName, flowName string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value for %s: %w", compositeKey(itemID, taskName, flowName), err)
	}
	return s.client.Set(ctx, compositeKey(itemID, taskName, flowName), encoded, 0).Err()
}

func (s *RedisStorage) Retrieve(ctx context.Context, itemID, taskName, flowName string) (interface{}, error) {
	raw, err := s.client.Get(ctx, compositeKey(itemID, taskName, flowName)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving %s: %w", compositeKey(itemID, taskName, flowName), err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decoding value for %s: %w", compositeKey(itemID, taskName, flowName), err)
	}
	return value, nil
}

func (s *RedisStorage) Delete(ctx context.Context, itemID, taskName, flowName string) error {
	return s.client.Del(ctx, compositeKey(itemID, taskName, flowName)).Err()
}
