// Package ratelimit provides request rate limiting with a Redis-backed
// fixed-window backend for multi-instance deployments and an in-process
// token-bucket backend for single-instance ones.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	BackendRedis = "redis"
	BackendLocal = "local"
)

// Config holds rate limiter settings.
type Config struct {
	// Requests allowed per window.
	Requests int
	// Window is the accounting period.
	Window time.Duration
	// Enabled toggles enforcement; a disabled limiter allows everything.
	Enabled bool
	// Backend selects the implementation: "redis" or "local".
	Backend string
	// KeyPrefix namespaces counter keys in the shared store.
	KeyPrefix string
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = "ratelimit:"
	}

	switch c.Backend {
	case BackendRedis, BackendLocal:
	case "":
		c.Backend = BackendLocal
	default:
		return fmt.Errorf("unsupported rate limit backend: %s", c.Backend)
	}

	return nil
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// Limiter decides whether a request identified by key may proceed.
// Implementations fail open: an infrastructure error never denies.
type Limiter interface {
	Check(ctx context.Context, key string) Result
	Health() error
}

// CounterStore is the slice of the Redis client the distributed backend
// needs.
type CounterStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
	Health() error
}

var (
	_ Limiter = (*redisLimiter)(nil)
	_ Limiter = (*localLimiter)(nil)
)

// New creates a limiter for the configured backend. The store is required
// for the redis backend and ignored for the local one.
func New(config Config, store CounterStore) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// A disabled limiter allows everything regardless of backend
	if !config.Enabled {
		return newLocalLimiter(config), nil
	}

	switch config.Backend {
	case BackendRedis:
		if store == nil {
			return nil, fmt.Errorf("a counter store is required for the redis backend")
		}
		return newRedisLimiter(config, store), nil
	default:
		return newLocalLimiter(config), nil
	}
}
