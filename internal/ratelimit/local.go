package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxTrackedKeys = 10000
	cleanupPeriod  = 5 * time.Minute
)

// localLimiter keeps a token bucket per key, refilled at the configured
// window rate. Buckets idle for longer than cleanupPeriod are dropped.
type localLimiter struct {
	mu          sync.Mutex
	config      Config
	perSecond   rate.Limit
	buckets     map[string]*bucketEntry
	lastCleanup time.Time
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

func newLocalLimiter(config Config) *localLimiter {
	l := &localLimiter{
		config:      config,
		buckets:     make(map[string]*bucketEntry),
		lastCleanup: time.Now(),
	}
	if config.Enabled {
		l.perSecond = rate.Limit(float64(config.Requests) / config.Window.Seconds())
	}
	return l
}

func (l *localLimiter) Check(ctx context.Context, key string) Result {
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

	bucket := l.bucketFor(key)
	result.Allowed = bucket.Allow()
	result.Remaining = int(bucket.Tokens())
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result
}

// bucketFor returns the bucket for key, creating it on first use. The burst
// equals the per-window budget so a quiet key can spend a full window at
// once, matching the fixed-window backend's behavior.
func (l *localLimiter) bucketFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) > cleanupPeriod {
		l.cleanup()
	}

	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.perSecond, l.config.Requests)}
		l.buckets[key] = entry

		if len(l.buckets) > maxTrackedKeys {
			l.cleanup()
		}
	}
	entry.lastUsed = time.Now()

	return entry.limiter
}

// cleanup drops buckets that have not been used within cleanupPeriod.
// Callers must hold the mutex.
func (l *localLimiter) cleanup() {
	cutoff := time.Now().Add(-cleanupPeriod)
	for key, entry := range l.buckets {
		if entry.lastUsed.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
	l.lastCleanup = time.Now()
}

func (l *localLimiter) Health() error {
	return nil
}
