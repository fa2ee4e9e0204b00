package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"hubspot-connector/internal/crypto"
)

const (
	pendingKeyPrefix     = "pending:"
	credentialsKeyPrefix = "credentials:"
)

// pendingKey builds the store key for one flow's CSRF state.
func pendingKey(userID, orgID string) string {
	return fmt.Sprintf("%s%s:%s", pendingKeyPrefix, orgID, userID)
}

// credentialsKey builds the store key for one tenant's credentials.
func credentialsKey(userID, orgID string) string {
	return fmt.Sprintf("%s%s:%s", credentialsKeyPrefix, orgID, userID)
}

// parseCredentialsKey recovers the tenant pair from a credentials key.
// The org segment must not contain a colon; the user segment may.
func parseCredentialsKey(key string) (TenantPair, bool) {
	rest, ok := strings.CutPrefix(key, credentialsKeyPrefix)
	if !ok {
		return TenantPair{}, false
	}
	orgID, userID, ok := strings.Cut(rest, ":")
	if !ok || orgID == "" || userID == "" {
		return TenantPair{}, false
	}
	return TenantPair{UserID: userID, OrgID: orgID}, true
}

// Store owns PendingState and Credentials persistence. Implementations expire
// entries server-side; a missing or expired entry reads back as (nil, nil),
// never as an error. Callers must not cache values across calls.
type Store interface {
	// PutPendingState writes the flow's CSRF state, replacing any live entry
	// for the same pair (last writer wins, no lock)
	PutPendingState(ctx context.Context, state *PendingState, ttl time.Duration) error
	// GetPendingState reads the live state for a pair, nil when absent
	GetPendingState(ctx context.Context, userID, orgID string) (*PendingState, error)
	// DeletePendingState removes the state; idempotent
	DeletePendingState(ctx context.Context, userID, orgID string) error

	// PutCredentials replaces the tenant's credential payload wholesale
	PutCredentials(ctx context.Context, userID, orgID string, creds *Credentials, ttl time.Duration) error
	// GetCredentials reads the tenant's credentials, nil when absent
	GetCredentials(ctx context.Context, userID, orgID string) (*Credentials, error)

	// ListCredentialPairs enumerates the tenants currently holding
	// credentials. Intended for background sweeps, not hot paths.
	ListCredentialPairs(ctx context.Context) ([]TenantPair, error)
}

// KeyValueStore is the narrow expiring key-value contract the Redis-backed
// store needs. The internal/redis client satisfies it; tests may substitute
// their own implementations.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// RedisStore keeps both key families in Redis with server-side expiry.
// When an encryptor is configured the stored credential payload is the
// AES-256-GCM ciphertext of its JSON; pending states stay plaintext since
// they only carry the transient nonce.
type RedisStore struct {
	kv        KeyValueStore
	encryptor *crypto.CredentialEncryptor
}

// NewRedisStore creates a Redis-backed store. A nil encryptor stores
// credentials as plaintext JSON.
func NewRedisStore(kv KeyValueStore, encryptor *crypto.CredentialEncryptor) *RedisStore {
	return &RedisStore{
		kv:        kv,
		encryptor: encryptor,
	}
}

func (s *RedisStore) PutPendingState(ctx context.Context, state *PendingState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize pending state: %w", err)
	}
	return s.kv.Set(ctx, pendingKey(state.UserID, state.OrgID), string(data), ttl)
}

func (s *RedisStore) GetPendingState(ctx context.Context, userID, orgID string) (*PendingState, error) {
	data, err := s.kv.Get(ctx, pendingKey(userID, orgID))
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var state PendingState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize pending state: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) DeletePendingState(ctx context.Context, userID, orgID string) error {
	return s.kv.Delete(ctx, pendingKey(userID, orgID))
}

func (s *RedisStore) PutCredentials(ctx context.Context, userID, orgID string, creds *Credentials, ttl time.Duration) error {
	key := credentialsKey(userID, orgID)

	if s.encryptor != nil {
		sealed, err := s.encryptor.EncryptJSON(creds)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		return s.kv.Set(ctx, key, sealed, ttl)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	return s.kv.Set(ctx, key, string(data), ttl)
}

func (s *RedisStore) GetCredentials(ctx context.Context, userID, orgID string) (*Credentials, error) {
	data, err := s.kv.Get(ctx, credentialsKey(userID, orgID))
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var creds Credentials
	if s.encryptor != nil {
		if err := s.encryptor.DecryptJSON(data, &creds); err != nil {
			return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
		}
		return &creds, nil
	}

	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to deserialize credentials: %w", err)
	}
	return &creds, nil
}

func (s *RedisStore) ListCredentialPairs(ctx context.Context) ([]TenantPair, error) {
	keys, err := s.kv.ScanKeys(ctx, credentialsKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	pairs := make([]TenantPair, 0, len(keys))
	for _, key := range keys {
		if pair, ok := parseCredentialsKey(key); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}

// MemoryStore implements Store with in-process maps and lazy expiry. It is
// suitable for tests and single-instance development; entries are lost on
// restart.
type MemoryStore struct {
	mu          sync.RWMutex
	pending     map[string]pendingEntry
	credentials map[string]credentialsEntry
}

type pendingEntry struct {
	state     *PendingState
	expiresAt time.Time
}

type credentialsEntry struct {
	creds     *Credentials
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending:     make(map[string]pendingEntry),
		credentials: make(map[string]credentialsEntry),
	}
}

func expiryFor(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && time.Now().After(expiresAt)
}

func (s *MemoryStore) PutPendingState(ctx context.Context, state *PendingState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[pendingKey(state.UserID, state.OrgID)] = pendingEntry{
		state:     state,
		expiresAt: expiryFor(ttl),
	}
	return nil
}

func (s *MemoryStore) GetPendingState(ctx context.Context, userID, orgID string) (*PendingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.pending[pendingKey(userID, orgID)]
	if !exists || expired(entry.expiresAt) {
		return nil, nil
	}
	return entry.state, nil
}

func (s *MemoryStore) DeletePendingState(ctx context.Context, userID, orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, pendingKey(userID, orgID))
	return nil
}

func (s *MemoryStore) PutCredentials(ctx context.Context, userID, orgID string, creds *Credentials, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credentialsKey(userID, orgID)] = credentialsEntry{
		creds:     creds,
		expiresAt: expiryFor(ttl),
	}
	return nil
}

func (s *MemoryStore) GetCredentials(ctx context.Context, userID, orgID string) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.credentials[credentialsKey(userID, orgID)]
	if !exists || expired(entry.expiresAt) {
		return nil, nil
	}
	return entry.creds, nil
}

func (s *MemoryStore) ListCredentialPairs(ctx context.Context) ([]TenantPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]TenantPair, 0, len(s.credentials))
	for key, entry := range s.credentials {
		if expired(entry.expiresAt) {
			continue
		}
		if pair, ok := parseCredentialsKey(key); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}
