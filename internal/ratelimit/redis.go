// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"shop-api/internal/resilience"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Nop allows everything. Used when no redis address is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) bool { return true }

// RedisLimiter keeps one counter per key in redis. The counter expires
// window after the first hit, which starts the next window.
//
// Redis being unreachable never blocks traffic: errors and an open breaker
// both allow the request.
type RedisLimiter struct {
	rdb     *redis.Client
	limit   int
	window  time.Duration
	breaker *resilience.CircuitBreaker
}

func NewRedisLimiter(addr string, limit int, window time.Duration) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return &RedisLimiter{
		rdb:     rdb,
		limit:   limit,
		window:  window,
		breaker: resilience.NewCircuitBreaker("redis", 3, 10*time.Second),
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	var count int64
	err := l.breaker.Execute(func() error {
		var err error
		count, err = l.hit(ctx, key)
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrOpen) && !errors.Is(err, resilience.ErrHalfOpen) {
			slog.Warn("Rate limiter unavailable, allowing request", "key", key, "error", err)
		}
		return true
	}
	return count <= int64(l.limit)
}

func (l *RedisLimiter) hit(ctx context.Context, key string) (int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
