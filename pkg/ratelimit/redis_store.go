package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares rate-limit windows across replicas via a Redis
// counter per key. The counter's TTL defines the window boundary.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store using the given client. Keys are
// namespaced with the prefix to avoid clashing with other users of the
// same Redis database.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	k := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	// NX keeps the original window boundary on subsequent hits.
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}

	return incr.Val(), time.Now().Add(remaining), nil
}
