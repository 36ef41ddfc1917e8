package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+s.Addr()+"/2", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 2, client.Options().DB)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, s.DB(2).Exists("k"))
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", 0)
	assert.ErrorContains(t, err, "parse redis URL")

	s := miniredis.RunT(t)
	url := "redis://" + s.Addr()
	s.Close()

	_, err = NewClient(context.Background(), url, time.Second)
	assert.ErrorContains(t, err, "ping redis")
}

func TestPing_FollowsServerState(t *testing.T) {
	s := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+s.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := Ping(client, 200*time.Millisecond)
	require.NoError(t, check(context.Background()))

	s.SetError("LOADING")
	assert.Error(t, check(context.Background()))

	s.SetError("")
	assert.NoError(t, check(context.Background()))
}
