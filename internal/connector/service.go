package connector

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hubspot-connector/internal/common/errors"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/hubspot"
	"hubspot-connector/internal/metrics"
)

// ProviderClient is the surface of the provider API the service consumes.
// *hubspot.Client satisfies it; tests substitute fakes.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code string) (*hubspot.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*hubspot.TokenResponse, error)
	ListContacts(ctx context.Context, accessToken string) ([]hubspot.Contact, error)
}

var _ ProviderClient = (*hubspot.Client)(nil)

// Config carries the authorization endpoint parameters and lifecycle windows
// the service operates with. Immutable after construction.
type Config struct {
	// AuthBaseURL is the provider's authorization page
	AuthBaseURL string
	// ClientID is the OAuth2 client identifier embedded in the redirect URL
	ClientID string
	// RedirectURI is the callback this service registered with the provider
	RedirectURI string
	// Scopes is the space-separated scope string requested at authorization
	Scopes string
	// StateTTL bounds how long a pending state stays valid
	StateTTL time.Duration
	// CredentialsTTL bounds how long stored credentials stay cached
	CredentialsTTL time.Duration
	// RenewalBuffer is the margin before expiry inside which reads refresh
	RenewalBuffer time.Duration
}

// CallbackParams carries the query parameters the provider redirects back
// with after the user decides on the consent page.
type CallbackParams struct {
	// Code is the single-use authorization code (success path)
	Code string
	// State is the echoed state parameter, expected to be PendingState JSON
	State string
	// ProviderError is the provider's error query parameter (denial path)
	ProviderError string
}

// Service drives the credential lifecycle per (user, org) pair: CSRF-safe
// authorization initiation, exactly-once callback consumption, code-for-token
// exchange, proactive refresh inside the renewal buffer, and canonical item
// listing.
type Service struct {
	store    Store
	provider ProviderClient
	config   Config
	metrics  metrics.Recorder
	logger   logging.Logger
}

// NewService wires the lifecycle service. A nil recorder falls back to the
// no-op implementation, a nil logger to the global one.
func NewService(store Store, provider ProviderClient, config Config, recorder metrics.Recorder, logger logging.Logger) *Service {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Service{
		store:    store,
		provider: provider,
		config:   config,
		metrics:  recorder,
		logger:   logger,
	}
}

// BeginAuthorization starts an authorization flow for the pair: it generates
// the CSRF nonce, persists the pending state under the state TTL, and returns
// the provider authorization URL carrying the serialized state. A store
// failure is fatal; an unregistered state could never be validated at the
// callback.
func (s *Service) BeginAuthorization(ctx context.Context, userID, orgID string) (string, error) {
	if userID == "" || orgID == "" {
		return "", errors.ValidationError("user_id and org_id are required")
	}

	nonce, err := generateNonce()
	if err != nil {
		return "", errors.InternalError("failed to generate state nonce", err)
	}

	state := &PendingState{
		Nonce:  nonce,
		UserID: userID,
		OrgID:  orgID,
	}

	if err := s.store.PutPendingState(ctx, state, s.config.StateTTL); err != nil {
		return "", errors.InternalError("failed to persist pending state", err)
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return "", errors.InternalError("failed to encode pending state", err)
	}

	params := url.Values{}
	params.Set("client_id", s.config.ClientID)
	params.Set("redirect_uri", s.config.RedirectURI)
	params.Set("scope", s.config.Scopes)
	params.Set("state", string(stateJSON))

	s.metrics.IncCounter(ctx, "hubspot_auth_flows_started", 1, nil)
	s.logger.Info("Authorization flow started",
		logging.Field{"user_id", userID},
		logging.Field{"org_id", orgID})

	return s.config.AuthBaseURL + "?" + params.Encode(), nil
}

// HandleCallback consumes the provider redirect exactly once. The checks run
// in a fixed order: provider denial, parameter presence and decodability,
// pending-state existence, nonce comparison. Only then are the code exchange
// and the pending-state deletion run, concurrently and unconditionally. The
// nonce is single-use even when the exchange fails. An exchange failure takes
// precedence in the returned error; a delete failure alone surfaces as an
// internal store error.
func (s *Service) HandleCallback(ctx context.Context, params CallbackParams) error {
	if params.ProviderError != "" {
		return errors.AuthorizationDeniedError(params.ProviderError)
	}

	if params.Code == "" || params.State == "" {
		return errors.ValidationError("code and state parameters are required")
	}

	var echoed PendingState
	if err := json.Unmarshal([]byte(params.State), &echoed); err != nil {
		return errors.ValidationError("state parameter is not valid JSON")
	}

	pending, err := s.store.GetPendingState(ctx, echoed.UserID, echoed.OrgID)
	if err != nil {
		return errors.InternalError("failed to read pending state", err)
	}
	if pending == nil {
		return errors.StateExpiredError()
	}

	if pending.Nonce != echoed.Nonce {
		s.logger.Warn("State nonce mismatch at callback",
			logging.Field{"user_id", echoed.UserID},
			logging.Field{"org_id", echoed.OrgID})
		return errors.StateMismatchError()
	}

	var (
		tokenResp   *hubspot.TokenResponse
		exchangeErr error
		deleteErr   error
	)

	// Zero-value group: no shared context cancellation, both goroutines
	// always run to completion.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		tokenResp, err = s.provider.ExchangeCode(ctx, params.Code)
		exchangeErr = err
		return err
	})
	g.Go(func() error {
		err := s.store.DeletePendingState(ctx, echoed.UserID, echoed.OrgID)
		deleteErr = err
		return err
	})

	if err := g.Wait(); err != nil {
		if exchangeErr != nil {
			return exchangeErr
		}
		return errors.InternalError("failed to delete pending state", deleteErr)
	}

	creds := credentialsFromToken(tokenResp, time.Now().Unix())
	if err := s.store.PutCredentials(ctx, echoed.UserID, echoed.OrgID, creds, s.config.CredentialsTTL); err != nil {
		return errors.InternalError("failed to store credentials", err)
	}

	s.logger.Info("Credentials stored after code exchange",
		logging.Field{"user_id", echoed.UserID},
		logging.Field{"org_id", echoed.OrgID})

	return nil
}

// GetCredentials returns the live credential payload for the pair,
// refreshing it first when it has entered the renewal buffer. A refresh
// failure propagates with the provider's status; the stale payload is never
// returned as a fallback.
func (s *Service) GetCredentials(ctx context.Context, userID, orgID string) (*Credentials, error) {
	if userID == "" || orgID == "" {
		return nil, errors.ValidationError("user_id and org_id are required")
	}

	creds, err := s.store.GetCredentials(ctx, userID, orgID)
	if err != nil {
		return nil, errors.InternalError("failed to read credentials", err)
	}
	if creds == nil {
		return nil, errors.NoCredentialsError()
	}

	if !creds.NeedsRefresh(time.Now(), s.config.RenewalBuffer) {
		return creds, nil
	}

	return s.refreshCredentials(ctx, userID, orgID, creds)
}

// refreshCredentials runs the refresh grant and replaces the cached payload
// wholesale. Concurrent refreshes for the same pair may race; the last
// writer wins.
func (s *Service) refreshCredentials(ctx context.Context, userID, orgID string, creds *Credentials) (*Credentials, error) {
	s.metrics.IncCounter(ctx, "hubspot_token_refreshes", 1, nil)
	s.logger.Debug("Refreshing credentials inside renewal buffer",
		logging.Field{"user_id", userID},
		logging.Field{"org_id", orgID},
		logging.Field{"issued_at", creds.IssuedAt},
		logging.Field{"expires_in", creds.ExpiresIn})

	token, err := s.provider.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return nil, err
	}

	refreshed := credentialsFromToken(token, time.Now().Unix())
	if err := s.store.PutCredentials(ctx, userID, orgID, refreshed, s.config.CredentialsTTL); err != nil {
		return nil, errors.InternalError("failed to store refreshed credentials", err)
	}

	return refreshed, nil
}

// ListItems fetches one page of contacts with the supplied credentials and
// maps each record to a CanonicalItem. The credentials argument is accepted
// as *Credentials, Credentials, string, []byte, or json.RawMessage; decoding
// is idempotent. Records map concurrently; output order follows the
// provider's response order.
func (s *Service) ListItems(ctx context.Context, credentials interface{}) ([]CanonicalItem, error) {
	creds, err := coerceCredentials(credentials)
	if err != nil {
		return nil, err
	}

	s.metrics.IncCounter(ctx, "hubspot_api_calls", 1, map[string]string{"endpoint": "contacts"})

	contacts, err := s.provider.ListContacts(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	items := make([]CanonicalItem, len(contacts))
	var wg sync.WaitGroup
	for i, contact := range contacts {
		wg.Add(1)
		go func(i int, contact hubspot.Contact) {
			defer wg.Done()
			items[i] = newCanonicalItem(contact)
		}(i, contact)
	}
	wg.Wait()

	return items, nil
}

// coerceCredentials normalizes the accepted credential input shapes to a
// typed payload. Typed input passes through; serialized input is
// unmarshalled once.
func coerceCredentials(input interface{}) (*Credentials, error) {
	switch v := input.(type) {
	case *Credentials:
		if v == nil {
			return nil, errors.ValidationError("credentials are required")
		}
		return v, nil
	case Credentials:
		return &v, nil
	case string:
		return decodeCredentials([]byte(v))
	case []byte:
		return decodeCredentials(v)
	case json.RawMessage:
		return decodeCredentials(v)
	case nil:
		return nil, errors.ValidationError("credentials are required")
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unsupported credentials type %T", input))
	}
}

func decodeCredentials(data []byte) (*Credentials, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.ValidationError("credentials are required")
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.ValidationError("credentials payload is not valid JSON")
	}
	return &creds, nil
}

// credentialsFromToken builds the stored payload from a provider token
// response, stamping issuedAt as this service's receive time.
func credentialsFromToken(token *hubspot.TokenResponse, issuedAt int64) *Credentials {
	return &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		IssuedAt:     issuedAt,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
	}
}

// generateNonce returns 32 bytes of entropy as unpadded URL-safe base64.
func generateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
