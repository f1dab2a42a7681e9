package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "storefront:session:"

// RedisStore keeps each session as one hash. Every write refreshes the
// session's TTL, so idle sessions expire on the Redis side as well.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	data, err := r.client.HGet(ctx, sessionKey(session), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, session, key string, value []byte) error {
	k := sessionKey(session)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, k, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, session, key string) error {
	if err := r.client.HDel(ctx, sessionKey(session), key).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, sessionKey(session)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func sessionKey(session string) string {
	return redisKeyPrefix + session
}
