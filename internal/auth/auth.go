// Package auth provides optional bearer token authentication for the API
// routes. Tokens are HMAC-signed JWTs verified against a shared secret;
// when no secret is configured the middleware is never installed and the
// API stays open.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hubspot-connector/internal/common/logging"
)

const issuer = "hubspot-connector"

// Claims carried by API bearer tokens. Subject identifies the calling
// service.
type Claims struct {
	jwt.RegisteredClaims
}

// Auth verifies bearer tokens on protected routes.
type Auth struct {
	secret []byte
	logger logging.Logger
}

func New(secret string, logger logging.Logger) *Auth {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Auth{
		secret: []byte(secret),
		logger: logger,
	}
}

// GenerateToken mints a signed token for the given caller. The service
// itself only verifies; this exists for tests and operational tooling.
func (a *Auth) GenerateToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken parses and verifies a bearer token, rejecting any signing
// method other than HMAC.
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// RequireAuth rejects requests that do not carry a valid bearer token.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			a.unauthorized(w, "authentication required")
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			a.logger.Warn("Rejected API request with invalid token",
				logging.Field{"path", r.URL.Path},
				logging.Field{"error", err.Error()},
			)
			a.unauthorized(w, "invalid or expired token")
			return
		}

		// Expose the caller identity to handlers and request logging
		if claims.Subject != "" {
			r.Header.Set("X-API-Client", claims.Subject)
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
