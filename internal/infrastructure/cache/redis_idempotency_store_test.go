//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisIdempotencyStore(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, addr, "", 0)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.PingContext(ctx))

	isNew, err := store.MarkProcessed(ctx, "POST:/returns:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "POST:/returns:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	ok, err := store.IsProcessed(ctx, "POST:/returns:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Forget(ctx, "POST:/returns:abc"))
	ok, err = store.IsProcessed(ctx, "POST:/returns:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}
