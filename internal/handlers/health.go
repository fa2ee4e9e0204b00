package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthCheck reports whether the credential store is reachable. A handler
// wired without a health checker reports healthy; it has nothing to probe.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy"}

	if h.health != nil {
		if err := h.health.Health(); err != nil {
			h.logger.Error("Health check failed", err)
			status["status"] = "unhealthy"
			status["error"] = err.Error()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(status)
			return
		}
	}

	h.sendJSONResponse(w, status)
}
