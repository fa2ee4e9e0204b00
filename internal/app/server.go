package app

import (
	"github.com/gorilla/mux"

	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/handlers"
	"hubspot-connector/internal/server"
)

// RunServer assembles the HTTP stack and returns a server ready to start.
func (a *App) RunServer() *server.Server {
	h := handlers.New(a.Service, a.RedisClient,
		logging.GetGlobalLogger().WithFields(logging.Field{"component", "handlers"}))

	router := mux.NewRouter()

	var authMiddleware mux.MiddlewareFunc
	if a.Auth != nil {
		authMiddleware = a.Auth.RequireAuth
	}

	SetupRoutes(router, h, authMiddleware, a.initializeRateLimiter(), a.Recorder)

	return server.New(router, a.Config.Addr())
}
