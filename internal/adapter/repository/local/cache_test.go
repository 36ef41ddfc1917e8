package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/usecase"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Minute, time.Minute)

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)

	value := []byte("one")
	require.NoError(t, c.Set(ctx, "a", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	got[0] = 'Y'
	again, _ := c.Get(ctx, "a")
	assert.Equal(t, "one", string(again))

	require.NoError(t, c.Set(ctx, "b", []byte("two"), time.Minute))
	assert.Equal(t, 2, c.Len())
	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))
	assert.Equal(t, 0, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheImplementsPort(t *testing.T) {
	var _ usecase.Cache = NewCache(time.Minute, time.Minute)
}
