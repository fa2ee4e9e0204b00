package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubspot-connector/internal/auth"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestGenerateToken(t *testing.T) {
	a := auth.New(testSecret, nil)

	token, err := a.GenerateToken("crm-sync-worker", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*auth.Claims)
	require.True(t, ok)
	assert.Equal(t, "crm-sync-worker", claims.Subject)
	assert.Equal(t, "hubspot-connector", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken(t *testing.T) {
	a := auth.New(testSecret, nil)

	validToken, err := a.GenerateToken("crm-sync-worker", time.Hour)
	require.NoError(t, err)

	otherAuth := auth.New("a-completely-different-secret-key-456", nil)
	wrongSecretToken, err := otherAuth.GenerateToken("crm-sync-worker", time.Hour)
	require.NoError(t, err)

	expiredToken, err := a.GenerateToken("crm-sync-worker", -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{"valid token", validToken, false},
		{"wrong secret", wrongSecretToken, true},
		{"expired token", expiredToken, true},
		{"garbage token", "invalid.token.here", true},
		{"empty token", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := a.ValidateToken(tt.token)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, "crm-sync-worker", claims.Subject)
			}
		})
	}
}

func TestValidateToken_RejectsUnsignedAlgorithm(t *testing.T) {
	a := auth.New(testSecret, nil)

	// A token signed with alg "none" must never validate
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	a := auth.New(testSecret, nil)

	validToken, err := a.GenerateToken("crm-sync-worker", time.Hour)
	require.NoError(t, err)
	expiredToken, err := a.GenerateToken("crm-sync-worker", -time.Hour)
	require.NoError(t, err)

	var seenClient string
	protected := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenClient = r.Header.Get("X-API-Client")
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid bearer token",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "authentication required",
		},
		{
			name:           "not a bearer scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "authentication required",
		},
		{
			name:           "empty bearer token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "authentication required",
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid or expired token",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid or expired token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenClient = ""

			req := httptest.NewRequest("POST", "/integrations/hubspot/credentials", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "crm-sync-worker", seenClient)
			}
		})
	}
}
