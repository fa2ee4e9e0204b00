// Package app wires the connector's components together and owns their
// lifecycle: configuration, Redis, the credential store, the HubSpot client,
// the lifecycle service, optional API auth, and the refresh sweeper.
package app

import (
	"context"

	"hubspot-connector/internal/auth"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/config"
	"hubspot-connector/internal/connector"
	"hubspot-connector/internal/metrics"
	"hubspot-connector/internal/redis"
	"hubspot-connector/internal/scheduler"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Logger      logging.Logger
	Recorder    metrics.Recorder
	RedisClient *redis.Client
	Store       connector.Store
	Service     *connector.Service
	Auth        *auth.Auth
	Sweeper     *scheduler.Sweeper
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logging.GetGlobalLogger().WithFields(logging.Field{"component", "app"}),
		Recorder: metrics.NopRecorder{},
	}

	// Initialize components in order of dependency. Redis backs the
	// credential store, so unlike optional components a failure here is
	// fatal.
	if err := app.initializeRedis(); err != nil {
		return nil, err
	}

	if err := app.initializeStore(); err != nil {
		return nil, err
	}

	app.initializeService()
	app.initializeAuth()
	app.initializeSweeper()

	return app, nil
}

// Cleanup releases held resources. Safe to call after a partial New.
func (a *App) Cleanup() {
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Warn("Failed to close Redis client",
				logging.Field{"error", err.Error()})
		}
	}
}

// Shutdown stops background components, waiting for running work to finish.
func (a *App) Shutdown(ctx context.Context) error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	return nil
}
