// Package ratelimit enforces fixed-window request budgets for sensitive
// operations, keyed by client address.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule describes one fixed-window budget.
type Rule struct {
	// Name scopes the counter key so each operation has its own window.
	Name string
	// Limit is the number of requests allowed per window.
	Limit int64
	// Window is the fixed interval; counters reset at the window boundary.
	Window time.Duration
}

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the window resets. Only meaningful when
	// Allowed is false.
	RetryAfter time.Duration
}

// Limiter checks whether a keyed operation is within its budget.
type Limiter interface {
	Allow(ctx context.Context, rule Rule, key string) (Decision, error)
}

// RedisLimiter implements fixed-window limiting with Redis counters. The
// counter is incremented atomically; the TTL is attached on the first hit of
// each window so the window boundary never drifts.
type RedisLimiter struct {
	client redis.UniversalClient
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow increments the counter for the rule+key pair and checks it against
// the budget. Redis errors are returned to the caller, which fails closed.
func (l *RedisLimiter) Allow(ctx context.Context, rule Rule, key string) (Decision, error) {
	counterKey := fmt.Sprintf("rl:%s:%s", rule.Name, key)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, rule.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("set rate counter ttl: %w", err)
		}
	}

	if count <= rule.Limit {
		return Decision{Allowed: true}, nil
	}

	ttl, err := l.client.PTTL(ctx, counterKey).Result()
	if err != nil || ttl < 0 {
		// The key may have expired between INCR and PTTL; assume a fresh
		// window is about to start.
		ttl = rule.Window
	}

	return Decision{Allowed: false, RetryAfter: ttl}, nil
}
