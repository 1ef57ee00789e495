package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a redis client for per-student summary caching. A nil *Cache
// is valid and behaves as a miss on every call, so the services never have
// to check whether caching is enabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redis with short timeouts.
func New(addr string, ttl time.Duration) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Cache{client: client, ttl: ttl}
}

// Healthy verifies redis connectivity.
func (c *Cache) Healthy(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}

// GetJSON loads a cached value into dest. Returns false on miss or any
// redis error; the caller falls through to the store.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a value under key with the configured TTL. Errors are
// dropped; the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, raw, c.ttl)
}

// Invalidate drops keys after a write path mutates the underlying records.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

// Close releases the client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
