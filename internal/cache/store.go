package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/chef-next-door/backend/config"
)

// Entry is a cached read result.
type Entry struct {
	Data json.RawMessage `json:"data"`
	// Stale entries are served while a refetch runs.
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Age reports how long ago the entry was written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.UpdatedAt)
}

// NewEntry encodes value as a fresh entry.
func NewEntry(value any) (Entry, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return Entry{Data: data, UpdatedAt: time.Now()}, nil
}

// Store holds entries by key. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// NewStore builds the store selected by cfg.Store. The redis store needs a
// connected client.
func NewStore(cfg config.CacheConfig, rdb *redis.Client) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(Config{
			Capacity:           cfg.Capacity,
			NumShards:          cfg.Shards,
			TTL:                cfg.TTL,
			EvictionPercentage: cfg.EvictionPercentage,
		})
	case "redis":
		if rdb == nil {
			return nil, &ConfigError{Field: "Store", Message: "redis store requires a redis connection"}
		}
		return NewRedisStore(rdb, cfg.RedisPrefix, cfg.TTL), nil
	default:
		return nil, &ConfigError{Field: "Store", Message: fmt.Sprintf("unknown cache store %q", cfg.Store)}
	}
}
