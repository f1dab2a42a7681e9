package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, ttl)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestRedis(t, time.Hour)
	exerciseStore(t, s)
}

func TestRedisStore_WriteRefreshesTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "abc", "cart", []byte(`[]`)))
	assert.Equal(t, 10*time.Minute, mr.TTL(sessionKey("abc")))

	mr.FastForward(6 * time.Minute)
	require.NoError(t, s.Set(ctx, "abc", "user", []byte(`{}`)))
	assert.Equal(t, 10*time.Minute, mr.TTL(sessionKey("abc")))

	mr.FastForward(11 * time.Minute)
	_, err := s.Get(ctx, "abc", "cart")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_KeyLayout(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	require.NoError(t, s.Set(context.Background(), "abc", "lastOrderId", []byte("o-1")))

	assert.Equal(t, "o-1", mr.HGet("storefront:session:abc", "lastOrderId"))
	assert.Zero(t, mr.TTL("storefront:session:abc"))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &RedisStore{}, s)

	_, err = Open(context.Background(), Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
}
