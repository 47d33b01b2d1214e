package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-prod-dashboard/internal/model"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ------------------- Cache Backends -------------------

// CacheBackend stores loaded tables by source key
type CacheBackend interface {
	Get(ctx context.Context, key string) (*model.Table, bool, error)
	Set(ctx context.Context, key string, t *model.Table, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type memoryEntry struct {
	table   *model.Table
	expires time.Time
}

// MemoryCache is an in-process TTL cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*model.Table, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.table, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, t *model.Table, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{table: t, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// RedisCache shares loaded tables between server instances
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to redisURL (redis://host:port/db) and pings it
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client, prefix: "dashboard:table:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.Table, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var t model.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached table: %w", err)
	}
	return &t, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, t *model.Table, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ------------------- Table Cache -------------------

// LoadFunc fetches a table on a cache miss
type LoadFunc func(ctx context.Context) (*model.Table, error)

// TableCache memoizes loads per source key. Concurrent misses on one key share
// a single fetch; failed fetches are not cached.
type TableCache struct {
	backend CacheBackend
	group   singleflight.Group
}

// NewTableCache wraps a backend; nil means an in-process cache
func NewTableCache(backend CacheBackend) *TableCache {
	if backend == nil {
		backend = NewMemoryCache()
	}
	return &TableCache{backend: backend}
}

// GetOrLoad returns the cached table for key or calls load and caches the result for ttl.
// hit reports whether the table came from the cache.
func (c *TableCache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (t *model.Table, hit bool, err error) {
	if t, ok, err := c.backend.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("⚠️ Cache read failed, loading from source")
	} else if ok {
		return t, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		t, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.backend.Set(ctx, key, t, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("⚠️ Cache write failed")
		}
		return t, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*model.Table), false, nil
}

// Invalidate drops one key so the next request reloads it
func (c *TableCache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// Clear drops every cached table
func (c *TableCache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}
