package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retailcore/backend/internal/domain/shared"
)

// RedisCache stores serialized read models in Redis
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a cache on a shared client
func NewRedisCache(client redis.UniversalClient, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

// Get returns (nil, false, nil) on a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value for ttl
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Generation reads the counter at key. Missing counters read as zero.
func (c *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, c.keyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %s: %w", key, err)
	}
	return gen, nil
}

// BumpGeneration increments the counter at key. The counter never expires.
func (c *RedisCache) BumpGeneration(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Incr(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache bump %s: %w", key, err)
	}
	return gen, nil
}

// NoopCache never stores anything. Every Get is a miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) Generation(context.Context, string) (int64, error)        { return 0, nil }
func (NoopCache) BumpGeneration(context.Context, string) (int64, error)    { return 0, nil }

var (
	_ shared.Cache = (*RedisCache)(nil)
	_ shared.Cache = NoopCache{}
)
