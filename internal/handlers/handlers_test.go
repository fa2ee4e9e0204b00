package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubspot-connector/internal/common/errors"
	"hubspot-connector/internal/connector"
	"hubspot-connector/internal/hubspot"
)

type stubProvider struct {
	exchangeErr error
	contactsErr error
	contacts    []hubspot.Contact
}

func (p *stubProvider) ExchangeCode(ctx context.Context, code string) (*hubspot.TokenResponse, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &hubspot.TokenResponse{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresIn:    1800,
		TokenType:    "bearer",
	}, nil
}

func (p *stubProvider) RefreshToken(ctx context.Context, refreshToken string) (*hubspot.TokenResponse, error) {
	return &hubspot.TokenResponse{
		AccessToken:  "access-refreshed",
		RefreshToken: "refresh-rotated",
		ExpiresIn:    1800,
		TokenType:    "bearer",
	}, nil
}

func (p *stubProvider) ListContacts(ctx context.Context, accessToken string) ([]hubspot.Contact, error) {
	if p.contactsErr != nil {
		return nil, p.contactsErr
	}
	return p.contacts, nil
}

type stubHealth struct {
	err error
}

func (s *stubHealth) Health() error { return s.err }

// newTestHandlers builds handlers over a real service backed by an in-memory
// store and a stub provider, so requests exercise the full path below the
// HTTP layer.
func newTestHandlers(t *testing.T) (*Handlers, *connector.MemoryStore, *stubProvider) {
	t.Helper()

	store := connector.NewMemoryStore()
	provider := &stubProvider{
		contacts: []hubspot.Contact{
			{
				ID:         "101",
				Properties: hubspot.ContactProperties{Firstname: "Ada", Lastname: "Lovelace"},
				CreatedAt:  "2024-03-01T10:00:00Z",
				UpdatedAt:  "2024-03-02T11:30:00Z",
			},
		},
	}

	service := connector.NewService(store, provider, connector.Config{
		AuthBaseURL:    "https://app.example.com/oauth/authorize",
		ClientID:       "client123",
		RedirectURI:    "http://localhost:8000/integrations/hubspot/oauth2callback",
		Scopes:         "crm.objects.contacts.read",
		StateTTL:       10 * time.Minute,
		CredentialsTTL: 10 * time.Minute,
		RenewalBuffer:  5 * time.Minute,
	}, nil, nil)

	return New(service, &stubHealth{}, nil), store, provider
}

func postForm(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// beginFlow runs the authorize handler and returns the state parameter from
// the authorization URL, exactly as the provider would echo it back.
func beginFlow(t *testing.T, h *Handlers, userID, orgID string) string {
	t.Helper()

	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("org_id", orgID)

	rr := httptest.NewRecorder()
	h.Authorize(rr, postForm(t, "/integrations/hubspot/authorize", form))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	authURL, err := url.Parse(resp["authorization_url"])
	require.NoError(t, err)

	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestAuthorize(t *testing.T) {
	h, store, _ := newTestHandlers(t)

	form := url.Values{}
	form.Set("user_id", "user-1")
	form.Set("org_id", "org-1")

	rr := httptest.NewRecorder()
	h.Authorize(rr, postForm(t, "/integrations/hubspot/authorize", form))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	authURL, err := url.Parse(resp["authorization_url"])
	require.NoError(t, err)
	assert.Equal(t, "client123", authURL.Query().Get("client_id"))
	assert.NotEmpty(t, authURL.Query().Get("state"))

	pending, err := store.GetPendingState(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, pending)
}

func TestAuthorize_QueryParams(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/authorize?user_id=user-1&org_id=org-1", nil)
	rr := httptest.NewRecorder()
	h.Authorize(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthorize_MissingParams(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	rr := httptest.NewRecorder()
	h.Authorize(rr, postForm(t, "/integrations/hubspot/authorize", url.Values{}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "user_id and org_id are required", resp["error"])
}

func TestOAuthCallback(t *testing.T) {
	h, store, _ := newTestHandlers(t)
	state := beginFlow(t, h, "user-1", "org-1")

	target := "/integrations/hubspot/oauth2callback?code=auth-code-1&state=" + url.QueryEscape(state)
	rr := httptest.NewRecorder()
	h.OAuthCallback(rr, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "<html><script>window.close();</script></html>", rr.Body.String())

	creds, err := store.GetCredentials(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "access-auth-code-1", creds.AccessToken)
}

func TestOAuthCallback_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "provider denial",
			target:     "/integrations/hubspot/oauth2callback?error=access_denied",
			wantStatus: http.StatusBadRequest,
			wantError:  "access_denied",
		},
		{
			name:       "missing parameters",
			target:     "/integrations/hubspot/oauth2callback",
			wantStatus: http.StatusBadRequest,
			wantError:  "code and state parameters are required",
		},
		{
			name:       "undecodable state",
			target:     "/integrations/hubspot/oauth2callback?code=c&state=not-json",
			wantStatus: http.StatusBadRequest,
			wantError:  "state parameter is not valid JSON",
		},
		{
			name:       "unknown pair",
			target:     "/integrations/hubspot/oauth2callback?code=c&state=" + url.QueryEscape(`{"state":"nonce","user_id":"ghost","org_id":"org-x"}`),
			wantStatus: http.StatusBadRequest,
			wantError:  "oauth state expired or missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandlers(t)

			rr := httptest.NewRecorder()
			h.OAuthCallback(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestOAuthCallback_ExchangeFailureStatus(t *testing.T) {
	h, store, provider := newTestHandlers(t)
	provider.exchangeErr = errors.TokenExchangeError(http.StatusBadRequest, `{"status":"BAD_AUTH_CODE"}`)

	state := beginFlow(t, h, "user-1", "org-1")

	target := "/integrations/hubspot/oauth2callback?code=bad&state=" + url.QueryEscape(state)
	rr := httptest.NewRecorder()
	h.OAuthCallback(rr, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "BAD_AUTH_CODE")

	// The nonce is spent even though the exchange failed.
	pending, err := store.GetPendingState(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestGetCredentials(t *testing.T) {
	h, store, _ := newTestHandlers(t)

	seeded := &connector.Credentials{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresIn:    3600,
		IssuedAt:     time.Now().Unix(),
		TokenType:    "bearer",
	}
	require.NoError(t, store.PutCredentials(context.Background(), "user-1", "org-1", seeded, 10*time.Minute))

	form := url.Values{}
	form.Set("user_id", "user-1")
	form.Set("org_id", "org-1")

	rr := httptest.NewRecorder()
	h.GetCredentials(rr, postForm(t, "/integrations/hubspot/credentials", form))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp connector.Credentials
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "access-abc", resp.AccessToken)
	assert.Equal(t, "refresh-def", resp.RefreshToken)
}

func TestGetCredentials_None(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	form := url.Values{}
	form.Set("user_id", "user-1")
	form.Set("org_id", "org-1")

	rr := httptest.NewRecorder()
	h.GetCredentials(rr, postForm(t, "/integrations/hubspot/credentials", form))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "no credentials found or expired", resp["error"])
}

func TestListItems_FormField(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	form := url.Values{}
	form.Set("credentials", `{"access_token":"access-abc"}`)

	rr := httptest.NewRecorder()
	h.ListItems(rr, postForm(t, "/integrations/hubspot/items", form))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Items []connector.CanonicalItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, connector.CanonicalItem{
		ID:               "101",
		Type:             "contact",
		Name:             "Ada Lovelace",
		CreationTime:     "2024-03-01T10:00:00Z",
		LastModifiedTime: "2024-03-02T11:30:00Z",
	}, resp.Items[0])
}

func TestListItems_RawBody(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/items", strings.NewReader(`{"access_token":"access-abc"}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.ListItems(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ada Lovelace")
}

func TestListItems_QueryParam(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	target := "/integrations/hubspot/items?credentials=" + url.QueryEscape(`{"access_token":"access-abc"}`)
	rr := httptest.NewRecorder()
	h.ListItems(rr, httptest.NewRequest(http.MethodPost, target, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListItems_MissingCredentials(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	rr := httptest.NewRecorder()
	h.ListItems(rr, postForm(t, "/integrations/hubspot/items", url.Values{}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "credentials are required", resp["error"])
}

func TestListItems_FetchErrorStatus(t *testing.T) {
	h, _, provider := newTestHandlers(t)
	provider.contactsErr = errors.ResourceFetchError(http.StatusForbidden, `{"status":"error","category":"MISSING_SCOPES"}`)

	req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/items", strings.NewReader(`{"access_token":"access-abc"}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.ListItems(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "MISSING_SCOPES")
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h, _, _ := newTestHandlers(t)

		rr := httptest.NewRecorder()
		h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp["status"])
	})

	t.Run("store down", func(t *testing.T) {
		h := New(nil, &stubHealth{err: fmt.Errorf("connection refused")}, nil)

		rr := httptest.NewRecorder()
		h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp["status"])
		assert.Contains(t, resp["error"], "connection refused")
	})

	t.Run("no checker wired", func(t *testing.T) {
		h := New(nil, nil, nil)

		rr := httptest.NewRecorder()
		h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
