package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"hubspot-connector/internal/connector"
)

// selfClosingPage is what the provider redirect lands on. The flow runs in a
// popup, so a successful callback just closes it.
const selfClosingPage = "<html><script>window.close();</script></html>"

// Authorize starts an authorization flow for a (user, org) pair and returns
// the provider URL to send the user to. The pair arrives as form fields or
// query parameters.
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user_id")
	orgID := r.FormValue("org_id")

	authURL, err := h.service.BeginAuthorization(r.Context(), userID, orgID)
	if err != nil {
		h.sendServiceError(w, err, "Failed to begin authorization")
		return
	}

	h.sendJSONResponse(w, map[string]string{"authorization_url": authURL})
}

// OAuthCallback consumes the provider redirect exactly once. Success answers
// with the popup-closing page; failures come back as JSON like every other
// route.
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := connector.CallbackParams{
		Code:          query.Get("code"),
		State:         query.Get("state"),
		ProviderError: query.Get("error"),
	}

	if err := h.service.HandleCallback(r.Context(), params); err != nil {
		h.sendServiceError(w, err, "OAuth callback failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, selfClosingPage)
}

// GetCredentials returns the live credential payload for a pair, refreshed
// first when it has entered the renewal buffer.
func (h *Handlers) GetCredentials(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user_id")
	orgID := r.FormValue("org_id")

	creds, err := h.service.GetCredentials(r.Context(), userID, orgID)
	if err != nil {
		h.sendServiceError(w, err, "Failed to get credentials")
		return
	}

	h.sendJSONResponse(w, creds)
}

// ListItems fetches one page of canonical items with the supplied
// credentials, which arrive either as a "credentials" form field or as the
// raw JSON request body.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	payload, err := credentialsPayload(r)
	if err != nil {
		h.sendJSONError(w, err, "Failed to read items request body", "failed to read request body", http.StatusBadRequest)
		return
	}

	items, err := h.service.ListItems(r.Context(), payload)
	if err != nil {
		h.sendServiceError(w, err, "Failed to list items")
		return
	}

	h.sendJSONResponse(w, map[string]interface{}{"items": items})
}

// credentialsPayload extracts the serialized credentials from the request.
// FormValue only consumes the body for form content types, so a JSON body
// falls through to the raw read.
func credentialsPayload(r *http.Request) (interface{}, error) {
	if value := r.FormValue("credentials"); value != "" {
		return value, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
