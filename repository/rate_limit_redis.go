package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "contract-features:ratelimit:"

// RedisRateLimitStore counts requests per key in fixed windows shared by
// every replica pointing at the same Redis.
type RedisRateLimitStore struct {
	client   *redis.Client
	capacity int
	window   time.Duration
	now      func() time.Time
}

func NewRedisRateLimitStore(opts *redis.Options, capacity int, window time.Duration) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client:   redis.NewClient(opts),
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// Ping checks connectivity.
func (r *RedisRateLimitStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRateLimitStore) Allow(ctx context.Context, key string) (bool, error) {
	slot := r.now().UnixNano() / int64(r.window)
	redisKey := fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, slot)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter %s: %w", redisKey, err)
	}

	return incr.Val() <= int64(r.capacity), nil
}

func (r *RedisRateLimitStore) Close() error {
	return r.client.Close()
}
