// Package handlers implements the HTTP surface of the connector: the
// authorization and callback routes of the OAuth flow, credential retrieval,
// item listing, and the health probe.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"hubspot-connector/internal/common/errors"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/connector"
)

// Service is the credential-lifecycle surface the HTTP layer drives.
// *connector.Service satisfies it; tests substitute fakes.
type Service interface {
	BeginAuthorization(ctx context.Context, userID, orgID string) (string, error)
	HandleCallback(ctx context.Context, params connector.CallbackParams) error
	GetCredentials(ctx context.Context, userID, orgID string) (*connector.Credentials, error)
	ListItems(ctx context.Context, credentials interface{}) ([]connector.CanonicalItem, error)
}

var _ Service = (*connector.Service)(nil)

// HealthChecker is the store liveness probe the health route consults.
type HealthChecker interface {
	Health() error
}

type Handlers struct {
	service Service
	health  HealthChecker
	logger  logging.Logger
}

// New wires the HTTP handlers. A nil health checker marks the store as not
// probed; a nil logger falls back to the global one.
func New(service Service, health HealthChecker, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		service: service,
		health:  health,
		logger:  logger,
	}
}

// sendJSONResponse writes data as a 200 JSON response.
func (h *Handlers) sendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", err)
	}
}

// sendJSONError writes a JSON error body with the given status. A nil err
// means the request was rejected without anything failing; it logs at warn.
func (h *Handlers) sendJSONError(w http.ResponseWriter, err error, logMsg, userMsg string, status int) {
	if err != nil {
		h.logger.Error(logMsg, err)
	} else {
		h.logger.Warn(logMsg)
	}
	h.writeJSONError(w, userMsg, status)
}

// sendServiceError maps a service failure onto the wire. AppError values keep
// their type's status, so provider statuses from token and resource calls
// ride through; anything else surfaces as an opaque internal error.
func (h *Handlers) sendServiceError(w http.ResponseWriter, err error, logMsg string) {
	status := errors.HTTPStatusFor(err)
	detail := "internal server error"
	if appErr, ok := err.(*errors.AppError); ok {
		detail = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(logMsg, err)
	} else {
		h.logger.Warn(logMsg,
			logging.Field{"error", err.Error()},
			logging.Field{"status", status})
	}

	h.writeJSONError(w, detail, status)
}

func (h *Handlers) writeJSONError(w http.ResponseWriter, detail string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": detail}); err != nil {
		h.logger.Error("Failed to encode error response", err)
	}
}
