package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client), mr
}

func TestRedisLimiter_AllowsWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	rule := Rule{Name: "login", Limit: 5, Window: 30 * time.Minute}

	for i := 0; i < 5; i++ {
		decision, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRedisLimiter_RejectsOverBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	rule := Rule{Name: "login", Limit: 5, Window: 30 * time.Minute}

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
		require.NoError(t, err)
	}

	decision, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, 30*time.Minute)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	rule := Rule{Name: "resend", Limit: 3, Window: 15 * time.Minute}

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
		require.NoError(t, err)
	}

	blocked, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// A different client address has its own window.
	other, err := limiter.Allow(context.Background(), rule, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRedisLimiter_RulesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	login := Rule{Name: "login", Limit: 1, Window: 30 * time.Minute}
	resend := Rule{Name: "resend", Limit: 1, Window: 15 * time.Minute}

	_, err := limiter.Allow(context.Background(), login, "10.0.0.1")
	require.NoError(t, err)

	blocked, err := limiter.Allow(context.Background(), login, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// The same address is still within budget for the other operation.
	decision, err := limiter.Allow(context.Background(), resend, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisLimiter_WindowResets(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	rule := Rule{Name: "login", Limit: 2, Window: 30 * time.Minute}

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
		require.NoError(t, err)
	}

	blocked, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// Counters reset at the window boundary, not gradually.
	mr.FastForward(30*time.Minute + time.Second)

	decision, err := limiter.Allow(context.Background(), rule, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisLimiter_ErrorWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLimiter(client)
	mr.Close()

	_, err := limiter.Allow(context.Background(), Rule{Name: "login", Limit: 5, Window: time.Minute}, "10.0.0.1")
	assert.Error(t, err)
}
