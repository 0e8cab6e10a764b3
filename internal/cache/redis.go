package cache

import (
	"context"
	"time"

	rediscache "github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
)

type redisCache struct {
	c *rediscache.Cache
}

// NewRedisCache returns a Cache backed by a shared Redis instance. The local
// in-process layer of go-redis/cache is disabled so entries written by one
// replica are visible to the others immediately.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{c: rediscache.New(&rediscache.Options{Redis: client})}
}

// Set stores value under key. A ttl of ForEver keeps the entry until evicted.
func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return r.c.Set(&rediscache.Item{
		Ctx:            ctx,
		Key:            key,
		Value:          value,
		TTL:            ttl,
		SkipLocalCache: true,
	})
}

// Get loads the entry for key into value, which must be a pointer. It reports
// whether the key was found.
func (r *redisCache) Get(ctx context.Context, key string, value any) bool {
	if err := r.c.Get(ctx, key, value); err != nil {
		return false
	}

	return true
}

// Exists reports whether key is present.
func (r *redisCache) Exists(ctx context.Context, key string) bool {
	return r.c.Exists(ctx, key)
}

// Delete removes key. Deleting a missing key is not an error.
func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.c.Delete(ctx, key)
}
