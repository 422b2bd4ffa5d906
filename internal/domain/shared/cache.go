package shared

import (
	"context"
	"time"
)

// Cache stores short-lived serialized read models. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation returns the counter stored at key, zero when absent
	Generation(ctx context.Context, key string) (int64, error)
	// BumpGeneration atomically increments the counter at key
	BumpGeneration(ctx context.Context, key string) (int64, error)
}
