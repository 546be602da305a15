package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares windows between processes with INCR and PEXPIRE.
type RedisLimiter struct {
	client *redis.Client
	policy Policy
	prefix string
}

func NewRedisLimiter(client *redis.Client, p Policy, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, policy: p, prefix: prefix}
}

func (l *RedisLimiter) Policy() Policy { return l.policy }

// key builds the Redis key: prefix:policy:client.
func (l *RedisLimiter) key(k string) string {
	if l.prefix == "" {
		return l.policy.Name + ":" + k
	}
	return l.prefix + ":" + l.policy.Name + ":" + k
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, fmt.Errorf("context error: %w", err)
	}

	redisKey := l.key(key)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr failed: %w", err)
	}

	count := int(incr.Val())
	ttl := pttl.Val()

	// First hit in the window, or a key that lost its expiry.
	if ttl < 0 {
		if err := l.client.PExpire(ctx, redisKey, l.policy.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis pexpire failed: %w", err)
		}
		ttl = l.policy.Window
	}

	return decide(l.policy.Limit, count, ttl), nil
}

func (l *RedisLimiter) Refund(ctx context.Context, key string) error {
	redisKey := l.key(key)

	n, err := l.client.Decr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("redis decr failed: %w", err)
	}
	if n < 0 {
		// The window expired between Allow and Refund.
		return l.client.Del(ctx, redisKey).Err()
	}
	return nil
}
