//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := newRedisClient(t)
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "order:t1:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "order:t1:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	ttl, err := client.TTL(ctx, defaultIdempotencyPrefix+"order:t1:abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Release(ctx, "order:t1:abc"))
	claimed, err = store.Claim(ctx, "order:t1:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, store.Close())
	assert.NoError(t, client.Ping(ctx).Err(), "store must not close a shared client")
}

func TestRedisCache(t *testing.T) {
	client := newRedisClient(t)
	c := NewRedisCache(client, "cache:")
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "debt-summary:t1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "debt-summary:t1", []byte(`{"open_debts":2}`), time.Minute))
	val, ok, err := c.Get(ctx, "debt-summary:t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"open_debts":2}`, string(val))

	gen, err := c.Generation(ctx, "debt-summary-gen:t1")
	require.NoError(t, err)
	assert.Zero(t, gen)
	for want := int64(1); want <= 2; want++ {
		gen, err = c.BumpGeneration(ctx, "debt-summary-gen:t1")
		require.NoError(t, err)
		assert.Equal(t, want, gen)
	}
	gen, err = c.Generation(ctx, "debt-summary-gen:t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	assert.Equal(t, "2", client.Get(ctx, "cache:debt-summary-gen:t1").Val(), "counter lives under the key prefix")
}
