package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/usecase"
)

func TestCacheSetAndGet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "account:user-1:a1", []byte(`{"id":"a1"}`), time.Minute))

	val, err := cache.Get(ctx, "account:user-1:a1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a1"}`, string(val))
}

func TestCacheMiss(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	_, err := cache.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheDeleteMany(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, key, []byte(key), time.Minute))
	}

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.NoError(t, cache.Delete(ctx))

	assert.False(t, mr.Exists(cache.prefix+"a"))
	assert.False(t, mr.Exists(cache.prefix+"b"))
	assert.True(t, mr.Exists(cache.prefix+"c"))
}
