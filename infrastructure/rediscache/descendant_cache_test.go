package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *DescendantCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, ttl)
}

func TestGetParent_MissReturnsFalse(t *testing.T) {
	c := newTestCache(t, time.Minute)
	_, ok := c.GetParent(context.Background(), "file-1")
	require.False(t, ok)
}

func TestSetParentThenGetParent_Hits(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()
	c.SetParent(ctx, "file-1", "folder-root")

	got, ok := c.GetParent(ctx, "file-1")
	require.True(t, ok)
	require.Equal(t, "folder-root", got)
}

func TestNew_NonPositiveTTLDefaultsToTenMinutes(t *testing.T) {
	c := New(nil, 0)
	require.Equal(t, 10*time.Minute, c.ttl)

	c = New(nil, -time.Second)
	require.Equal(t, 10*time.Minute, c.ttl)
}

func TestGetParent_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := New(client, time.Second)

	ctx := context.Background()
	c.SetParent(ctx, "file-1", "folder-root")
	mr.FastForward(2 * time.Second)

	_, ok := c.GetParent(ctx, "file-1")
	require.False(t, ok)
}
