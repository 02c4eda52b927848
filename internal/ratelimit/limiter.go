// Package ratelimit throttles actions per key with a shared redis counter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter admits at most one action per key per interval.
type Limiter struct {
	redis    *redis.Client
	prefix   string
	interval time.Duration
}

// NewLimiter creates a Limiter. A nil client yields a limiter that admits everything.
func NewLimiter(client *redis.Client, prefix string, interval time.Duration) *Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Limiter{
		redis:    client,
		prefix:   prefix,
		interval: interval,
	}
}

// Allow records an action for key. When the key is still cooling down it
// returns false and the time left before the next action is admitted.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.redis == nil {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	ok, err := l.redis.SetNX(ctx, redisKey, 1, l.interval).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := l.redis.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}
	if ttl < 0 {
		ttl = l.interval
	}
	return false, ttl, nil
}

// Reset clears the cooldown for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.redis == nil {
		return nil
	}
	return l.redis.Del(ctx, fmt.Sprintf("%s:%s", l.prefix, key)).Err()
}
