// Package hubspot implements the HTTP client for the provider's OAuth2 token
// endpoint and CRM contacts endpoint. The client is stateless; callers supply
// tokens per call and provider failures map onto the shared error taxonomy
// with the provider's status and response body attached.
package hubspot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hubspot-connector/internal/common/errors"
	commonhttp "hubspot-connector/internal/common/http"
)

// Config carries the provider app credentials and endpoint URLs.
type Config struct {
	// ClientID is the OAuth2 client identifier registered with the provider
	ClientID string
	// ClientSecret is the OAuth2 client secret for authentication
	ClientSecret string
	// RedirectURI is the callback URL sent on the authorization_code grant
	RedirectURI string
	// TokenURL is the OAuth2 token endpoint for both grants
	TokenURL string
	// ContactsURL is the CRM contacts resource endpoint
	ContactsURL string
	// PageLimit bounds the number of contacts fetched per call
	PageLimit int
}

// TokenResponse represents an OAuth2 token response from the provider's token
// endpoint. This struct maps the standard OAuth 2.0 token response fields as
// defined in RFC 6749.
type TokenResponse struct {
	// AccessToken is the access token issued by the provider
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens (optional)
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in,omitempty"`
	// TokenType is the type of token issued (typically "bearer")
	TokenType string `json:"token_type,omitempty"`
	// Scope is the scope of the access token (optional)
	Scope string `json:"scope,omitempty"`
}

// Contact is a single CRM contact record as returned by the contacts endpoint.
// Timestamps stay in the provider's string form and pass through unmodified.
type Contact struct {
	ID         string            `json:"id"`
	Properties ContactProperties `json:"properties"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
	Archived   bool              `json:"archived,omitempty"`
}

// ContactProperties holds the default contact properties the provider returns.
type ContactProperties struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email,omitempty"`
}

// contactsPage mirrors the provider's paged list envelope.
type contactsPage struct {
	Results []Contact `json:"results"`
}

// Client talks to the provider over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a provider client. Options customize the underlying HTTP
// client; pass commonhttp.WithTimeout to bound outbound calls.
func NewClient(config Config, opts ...commonhttp.ClientOption) *Client {
	return &Client{
		config:     config,
		httpClient: commonhttp.NewHTTPClient(opts...),
	}
}

// ExchangeCode redeems an authorization code for tokens using the
// authorization_code grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("redirect_uri", c.config.RedirectURI)
	data.Set("code", code)

	status, body, err := c.postForm(ctx, data)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, errors.TokenExchangeError(status, string(body))
	}

	return decodeTokenResponse(body)
}

// RefreshToken obtains a fresh access token using the refresh_token grant.
// The redirect URI is not part of this grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.config.ClientID)
	data.Set("client_secret", c.config.ClientSecret)
	data.Set("refresh_token", refreshToken)

	status, body, err := c.postForm(ctx, data)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, errors.TokenRefreshError(status, string(body))
	}

	return decodeTokenResponse(body)
}

// ListContacts fetches one page of contacts using the supplied access token.
func (c *Client) ListContacts(ctx context.Context, accessToken string) ([]Contact, error) {
	limit := c.config.PageLimit
	if limit <= 0 {
		limit = 10
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.ContactsURL, nil)
	if err != nil {
		return nil, errors.InternalError("failed to create contacts request", err)
	}

	q := req.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ConnectionError("contacts request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ConnectionError("failed to read contacts response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.ResourceFetchError(resp.StatusCode, string(body))
	}

	var page contactsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.InternalError("failed to decode contacts response", err)
	}

	return page.Results, nil
}

// postForm submits a form-encoded POST to the token endpoint and returns the
// provider's status and raw body for the caller to interpret.
func (c *Client) postForm(ctx context.Context, data url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, nil, errors.InternalError("failed to create token request", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.ConnectionError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.ConnectionError("failed to read token response", err)
	}

	return resp.StatusCode, body, nil
}

func decodeTokenResponse(body []byte) (*TokenResponse, error) {
	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errors.InternalError("failed to decode token response", err)
	}
	return &tokenResp, nil
}
