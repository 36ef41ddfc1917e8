package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	infraRedis "github.com/iho/gofinance/internal/infrastructure/redis"
)

// newTestRedisClient connects to a fresh in-process Redis the way the server does.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := infraRedis.NewClient(context.Background(), "redis://"+mr.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}
