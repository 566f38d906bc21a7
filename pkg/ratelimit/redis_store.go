package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter counters in a shared Redis instance.
const keyPrefix = "ratelimit:"

// RedisStore implements Store on Redis so counters are shared across
// application replicas. Counters expire naturally via key TTL.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed counter store.
// Panics if client is nil to fail fast during initialization.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client is required")
	}
	return &RedisStore{client: client}
}

// Increment bumps the counter via INCR. Redis executes INCR atomically, so
// two concurrent requests always observe distinct counts and admission for
// the last remaining slot cannot be granted twice. The TTL is attached only
// when absent, making the window start at the first hit.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, keyPrefix+key)
	ttl := pipe.PTTL(ctx, keyPrefix+key)
	pipe.ExpireNX(ctx, keyPrefix+key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	// PTTL ran before ExpireNX: a fresh counter has no TTL yet, so its
	// window starts now.
	resetAt := now.Add(window)
	if d := ttl.Val(); d > 0 {
		resetAt = now.Add(d)
	}

	return incr.Val(), resetAt, nil
}

// Reset clears the counter for key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
