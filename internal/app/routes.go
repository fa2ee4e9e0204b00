package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"hubspot-connector/internal/handlers"
	"hubspot-connector/internal/metrics"
	"hubspot-connector/internal/middleware"
	"hubspot-connector/internal/ratelimit"
)

// SetupRoutes registers the HTTP surface on the router. The OAuth callback
// and the health endpoint are public: the provider redirect cannot carry a
// bearer token and probes must not need one. The remaining integration
// routes sit behind the auth middleware when one is supplied, and the
// authorize route alone is rate limited.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, authMiddleware mux.MiddlewareFunc, limiter ratelimit.Limiter, recorder metrics.Recorder) {
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware(recorder))

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/integrations/hubspot/oauth2callback", h.OAuthCallback).Methods("GET")

	api := router.PathPrefix("/integrations/hubspot").Subrouter()
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}

	var authorize http.Handler = http.HandlerFunc(h.Authorize)
	if limiter != nil {
		authorize = ratelimit.Middleware(limiter, ratelimit.TenantKey)(authorize)
	}
	api.Handle("/authorize", authorize).Methods("POST")
	api.HandleFunc("/credentials", h.GetCredentials).Methods("POST")
	api.HandleFunc("/items", h.ListItems).Methods("POST")
}
