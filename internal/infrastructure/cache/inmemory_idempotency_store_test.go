package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		claimed, err := store.Claim(ctx, "order:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("refuses a held key", func(t *testing.T) {
		_, err := store.Claim(ctx, "order:key-2", time.Hour)
		require.NoError(t, err)

		claimed, err := store.Claim(ctx, "order:key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("allows a claim after expiration", func(t *testing.T) {
		_, err := store.Claim(ctx, "order:key-3", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		claimed, err := store.Claim(ctx, "order:key-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Claim(ctx, "order:retry", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "order:retry"))

	claimed, err := store.Claim(ctx, "order:retry", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed, "released key should be claimable again")

	assert.NoError(t, store.Release(ctx, "never-claimed"))
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(ctx, "order:same", time.Hour)
			if err == nil && claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := newInMemoryIdempotencyStore(time.Hour, clock)
	defer store.Close()
	ctx := context.Background()

	_, _ = store.Claim(ctx, "short", time.Minute)
	_, _ = store.Claim(ctx, "long", 24*time.Hour)
	require.Equal(t, 2, store.Size())

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()
	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestFactory_WithoutRedis(t *testing.T) {
	f := NewFactory(config.RedisConfig{Port: 6379})

	client, err := f.Connect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, client)

	store := f.IdempotencyStore()
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.IsType(t, NoopCache{}, f.SummaryCache())
	assert.NoError(t, f.Close())
}

func TestFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("falls back", func(t *testing.T) {
		client, err := NewFactory(cfg).Connect(context.Background())
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewFactory(cfg, WithInMemoryFallback(false)).Connect(context.Background())
		assert.Error(t, err)
	})
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NoopCache{}
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
	gen, err := c.BumpGeneration(ctx, "g")
	require.NoError(t, err)
	assert.Zero(t, gen)
}
