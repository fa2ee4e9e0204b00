package app

import (
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/ratelimit"
)

// initializeRateLimiter builds the limiter guarding the authorize route.
// Returns nil when rate limiting is disabled or cannot be set up; callers
// treat a nil limiter as no limiting.
func (a *App) initializeRateLimiter() ratelimit.Limiter {
	if !a.Config.RateLimitEnabled {
		return nil
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		Requests: a.Config.RateLimitRequests,
		Window:   a.Config.RateLimitWindow,
		Enabled:  a.Config.RateLimitEnabled,
		Backend:  a.Config.RateLimitBackend,
	}, a.RedisClient)
	if err != nil {
		a.Logger.Warn("Rate limiter initialization failed, continuing without rate limiting",
			logging.Field{"error", err.Error()})
		return nil
	}

	a.Logger.Info("Rate limiting enabled",
		logging.Field{"backend", a.Config.RateLimitBackend},
		logging.Field{"requests", a.Config.RateLimitRequests},
		logging.Field{"window", a.Config.RateLimitWindow.String()})
	return limiter
}
