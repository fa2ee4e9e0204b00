package ratelimit

import (
	"context"
	"time"
)

// redisLimiter counts requests in a shared fixed window so the limit holds
// across instances.
type redisLimiter struct {
	config Config
	store  CounterStore
}

func newRedisLimiter(config Config, store CounterStore) *redisLimiter {
	return &redisLimiter{
		config: config,
		store:  store,
	}
}

func (l *redisLimiter) Check(ctx context.Context, key string) Result {
	result := Result{
		Allowed:   true,
		Limit:     l.config.Requests,
		Remaining: l.config.Requests,
		ResetTime: time.Now().Add(l.config.Window),
	}
	if !l.config.Enabled {
		return result
	}
	if key == "" {
		key = "global"
	}

	allowed, count, err := l.store.CheckRateLimit(ctx, l.config.KeyPrefix+key, l.config.Requests, l.config.Window)
	if err != nil {
		// Fail open: an unreachable store must not block traffic
		return result
	}

	result.Allowed = allowed
	result.Remaining = l.config.Requests - count
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result
}

func (l *redisLimiter) Health() error {
	return l.store.Health()
}
