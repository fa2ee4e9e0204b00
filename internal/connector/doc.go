// Package connector implements the credential lifecycle for delegated OAuth2
// access to the HubSpot CRM, per (user_id, org_id) pair, plus the canonical
// listing of CRM contacts.
//
// # Overview
//
// The package is built around a small state machine over an expiring
// key-value store:
//
//  1. BeginAuthorization generates a CSRF nonce, records a PendingState
//     under `pending:{org}:{user}`, and returns the provider authorization
//     URL with the serialized state embedded in the `state` parameter.
//  2. HandleCallback validates the echoed state against the stored one, then
//     concurrently redeems the authorization code and deletes the pending
//     entry. The nonce is single-use even when the exchange fails.
//  3. GetCredentials serves the cached payload, refreshing it first when it
//     has entered the renewal buffer ahead of expiry. A failed refresh
//     propagates; stale credentials are never served as a fallback.
//  4. ListItems fetches a bounded page of contacts with the payload's access
//     token and projects each record onto the CanonicalItem shape.
//
// # Storage
//
// All persistence goes through the Store interface. Two implementations are
// provided:
//
//   - RedisStore: production backend over the internal/redis client, with
//     optional AES-256-GCM encryption of the credential payload at rest.
//   - MemoryStore: in-process maps with lazy expiry, for tests and
//     single-instance development.
//
// Entries expire server-side at their TTL; both key families are
// last-writer-wins and no distributed locks are taken anywhere. A second
// BeginAuthorization for the same pair simply overwrites the pending entry,
// and concurrent refreshes race benignly.
//
// # Usage
//
//	store := connector.NewRedisStore(redisClient, nil)
//	provider := hubspot.NewClient(hubspotConfig)
//	service := connector.NewService(store, provider, connector.Config{
//	    AuthBaseURL:    "https://app.hubspot.com/oauth/authorize",
//	    ClientID:       "your-client-id",
//	    RedirectURI:    "http://localhost:8000/integrations/hubspot/oauth2callback",
//	    Scopes:         "crm.objects.contacts.read",
//	    StateTTL:       10 * time.Minute,
//	    CredentialsTTL: 10 * time.Minute,
//	    RenewalBuffer:  5 * time.Minute,
//	}, nil, nil)
//
//	redirectURL, err := service.BeginAuthorization(ctx, "user-1", "org-1")
//	// send the user to redirectURL; the provider calls back with code+state
//
//	err = service.HandleCallback(ctx, connector.CallbackParams{
//	    Code:  code,
//	    State: state,
//	})
//
//	creds, err := service.GetCredentials(ctx, "user-1", "org-1")
//	items, err := service.ListItems(ctx, creds)
//
// # Error semantics
//
// Every failure surfaces as a typed AppError from internal/common/errors and
// maps onto a distinct callback or usage condition: authorization_denied
// (provider error param), validation (missing or undecodable parameters),
// state_expired (pending entry absent), state_mismatch (nonce comparison),
// token_exchange and token_refresh (provider non-2xx with originating status
// and body), no_credentials (cache miss at use time), resource_fetch
// (contacts call non-2xx). There is no retry, backoff, or suppression on any
// path.
package connector
