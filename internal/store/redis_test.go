package store_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s := store.NewRedis(store.RedisOptions{Addr: endpoint})
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(ctx))

	runConformance(t, func(t *testing.T) store.Store {
		client := goredis.NewClient(&goredis.Options{Addr: endpoint})
		require.NoError(t, client.FlushDB(ctx).Err())
		require.NoError(t, client.Close())
		return s
	})
}
