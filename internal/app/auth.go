package app

import (
	"hubspot-connector/internal/auth"
	"hubspot-connector/internal/common/logging"
)

// initializeAuth sets up bearer token auth for the API routes. Without a
// configured secret the routes stay open and no middleware is installed.
func (a *App) initializeAuth() {
	if a.Config.APIAuthSecret == "" {
		a.Logger.Warn("API_AUTH_SECRET not set, API routes are unauthenticated")
		return
	}

	a.Auth = auth.New(a.Config.APIAuthSecret,
		logging.GetGlobalLogger().WithFields(logging.Field{"component", "auth"}))
	a.Logger.Info("API authentication enabled")
}
