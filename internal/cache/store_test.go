package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/config"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test:", time.Minute), mr
}

func stores(t *testing.T) map[string]Store {
	mem, err := NewMemoryStore(DefaultConfig())
	require.NoError(t, err)
	rs, _ := newRedisStore(t)
	return map[string]Store{"memory": mem, "redis": rs}
}

func TestStores(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "recipe::1")
			require.NoError(t, err)
			assert.False(t, ok)

			entry, err := NewEntry(map[string]string{"title": "Soup"})
			require.NoError(t, err)
			require.NoError(t, store.Set(ctx, "recipe::1", entry))
			require.NoError(t, store.Set(ctx, "recipe::2", entry))
			require.NoError(t, store.Set(ctx, `all-recipes::struct:{Tags:slice[1]:{"a"}}`, entry))

			got, ok, err := store.Get(ctx, "recipe::1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"title":"Soup"}`, string(got.Data))
			assert.False(t, got.Stale)

			keys, err := store.Keys(ctx, NamespacePrefix(NSRecipe))
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"recipe::1", "recipe::2"}, keys)

			keys, err = store.Keys(ctx, `all-recipes::struct:{Tags:slice[1]`)
			require.NoError(t, err)
			assert.Len(t, keys, 1)

			require.NoError(t, store.Delete(ctx, "recipe::1"))
			_, ok, err = store.Get(ctx, "recipe::1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisStoreDropsCorruptEntries(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("test:recipe::1", "not json"))

	_, ok, err := store.Get(context.Background(), "recipe::1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("test:recipe::1"))
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	entry, err := NewEntry("x")
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", entry))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.EvictionPercentage = 0
	var cfgErr *ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "EvictionPercentage", cfgErr.Field)

	cfg = DefaultConfig()
	cfg.TTL = 0
	assert.Error(t, cfg.Validate())

	_, err := NewMemoryStore(Config{})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(config.CacheConfig{Store: "memory", Capacity: 10, Shards: 1, TTL: time.Minute, EvictionPercentage: 10}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(config.CacheConfig{Store: "redis"}, nil)
	assert.Error(t, err)

	_, err = NewStore(config.CacheConfig{Store: "memcached"}, nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s, err = NewStore(config.CacheConfig{Store: "redis", RedisPrefix: "p:", TTL: time.Minute}, client)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
}
