package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRevocationStore_RevokeOnce(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	first, err := store.Revoke(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Revoke(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	assert.Equal(t, time.Hour, mr.TTL("revoked:jti-1"))

	mr.FastForward(2 * time.Hour)
	expired, err := store.Revoke(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestResponseCache_SetGetClear(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewResponseCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "0:/api/movies/")
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	for _, key := range []string{"0:/api/movies/", "0:/api/movies/?year=2010"} {
		require.NoError(t, cache.Set(ctx, key, []byte(`[]`)))
	}
	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())

	body, ok, err := cache.Get(ctx, "0:/api/movies/")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), body)
	assert.Equal(t, time.Minute, mr.TTL("respcache:0:/api/movies/"))

	require.NoError(t, cache.Clear(ctx))

	gen, err = cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	_, ok, err = cache.Get(ctx, "0:/api/movies/")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("respcache:0:/api/movies/?year=2010"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestResponseCache_ClearManyKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewResponseCache(client, time.Minute)
	ctx := context.Background()

	for i := range 250 {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("0:/api/movies/?page=%d", i), []byte(`[]`)))
	}
	require.NoError(t, cache.Clear(ctx))

	assert.Equal(t, []string{responseCacheGenKey}, mr.Keys())
}
