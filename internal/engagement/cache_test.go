package engagement

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *CountCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCountCache(client)
}

func TestCountCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.GetUpvotes(ctx, "chat-1")
	assert.False(t, ok, "cold cache misses")

	cache.SetUpvotes(ctx, "chat-1", 7)
	count, ok := cache.GetUpvotes(ctx, "chat-1")
	require.True(t, ok)
	assert.Equal(t, 7, count)

	// Writers overwrite with the authoritative value.
	cache.SetUpvotes(ctx, "chat-1", 6)
	count, ok = cache.GetUpvotes(ctx, "chat-1")
	require.True(t, ok)
	assert.Equal(t, 6, count)

	cache.SetReposts(ctx, "chat-1", 3)
	count, ok = cache.GetReposts(ctx, "chat-1")
	require.True(t, ok)
	assert.Equal(t, 3, count)
}

func TestCountCacheKeysAreIndependent(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.SetUpvotes(ctx, "chat-1", 5)
	_, ok := cache.GetReposts(ctx, "chat-1")
	assert.False(t, ok)
	_, ok = cache.GetUpvotes(ctx, "chat-2")
	assert.False(t, ok)
}

func TestCountCacheNilClient(t *testing.T) {
	cache := NewCountCache(nil)
	ctx := context.Background()

	cache.SetUpvotes(ctx, "chat-1", 5)
	_, ok := cache.GetUpvotes(ctx, "chat-1")
	assert.False(t, ok, "nil client always misses")
}
