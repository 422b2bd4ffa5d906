package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed stores from configuration and falls back to
// process-local implementations when Redis is not configured or unreachable
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect opens and pings the Redis client. It returns (nil, nil) when Redis
// is disabled and (nil, err) when it is configured but unreachable and no
// fallback is allowed.
func (f *Factory) Connect(ctx context.Context) (*redis.Client, error) {
	if f.client != nil {
		return f.client, nil
	}
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis disabled, using in-memory idempotency store and no summary cache")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Idempotency keys will not be shared across instances.",
			zap.Error(err))
		return nil, nil
	}

	f.logger.Info("Connected to Redis", zap.String("addr", client.Options().Addr))
	f.client = client
	return client, nil
}

// IdempotencyStore returns the Redis store when connected, else an in-memory one
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, defaultIdempotencyPrefix)
	}
	return NewInMemoryIdempotencyStore()
}

// SummaryCache returns the Redis cache when connected, else a no-op cache
func (f *Factory) SummaryCache() shared.Cache {
	if f.client != nil {
		return NewRedisCache(f.client, "cache:")
	}
	return NoopCache{}
}

// Close closes the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
