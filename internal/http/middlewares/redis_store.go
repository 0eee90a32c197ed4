package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the rate limiter with a shared counter so limits hold
// across instances.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	full := s.prefix + ":" + key

	pipe := s.rdb.TxPipeline()

	incr := pipe.Incr(ctx, full)
	// set the window only when the key is fresh
	pipe.ExpireNX(ctx, full, window)
	ttl := pipe.TTL(ctx, full)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()

	if remaining < 0 {
		remaining = window
	}

	return int(incr.Val()), remaining, nil
}
