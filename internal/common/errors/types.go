package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeValidation represents validation errors (malformed or missing input)
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeAuth represents authentication errors
	ErrTypeAuth ErrorType = "authentication"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
	// ErrTypeTimeout represents timeout errors
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeRateLimit represents rate limit errors
	ErrTypeRateLimit ErrorType = "rate_limit"

	// ErrTypeAuthorizationDenied represents an OAuth error reported by the
	// provider on the callback (the user declined, or the provider rejected
	// the request before issuing a code)
	ErrTypeAuthorizationDenied ErrorType = "authorization_denied"
	// ErrTypeStateExpired represents a callback whose pending authorization
	// state is absent: expired, already consumed, or never issued
	ErrTypeStateExpired ErrorType = "state_expired"
	// ErrTypeStateMismatch represents a callback whose echoed nonce does not
	// match the registered pending state
	ErrTypeStateMismatch ErrorType = "state_mismatch"
	// ErrTypeTokenExchange represents a non-success response from the token
	// endpoint during the authorization-code grant
	ErrTypeTokenExchange ErrorType = "token_exchange"
	// ErrTypeTokenRefresh represents a non-success response from the token
	// endpoint during the refresh-token grant
	ErrTypeTokenRefresh ErrorType = "token_refresh"
	// ErrTypeNoCredentials represents a credential cache miss at use time;
	// the caller must re-run authorization
	ErrTypeNoCredentials ErrorType = "no_credentials"
	// ErrTypeResourceFetch represents a non-success response from the
	// provider's resource endpoint
	ErrTypeResourceFetch ErrorType = "resource_fetch"
)

// defaultStatus maps each error type to the HTTP status surfaced to callers
// when the error does not carry an explicit provider status.
var defaultStatus = map[ErrorType]int{
	ErrTypeConnection:          503,
	ErrTypeValidation:          400,
	ErrTypeConfig:              500,
	ErrTypeAuth:                401,
	ErrTypeNotFound:            404,
	ErrTypeInternal:            500,
	ErrTypeTimeout:             504,
	ErrTypeRateLimit:           429,
	ErrTypeAuthorizationDenied: 400,
	ErrTypeStateExpired:        400,
	ErrTypeStateMismatch:       400,
	ErrTypeTokenExchange:       502,
	ErrTypeTokenRefresh:        502,
	ErrTypeNoCredentials:       400,
	ErrTypeResourceFetch:       502,
}

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Status  int                    `json:"status,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStatus overrides the HTTP status surfaced for this error
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// HTTPStatus returns the status carried by the error, falling back to the
// default for its type.
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if status, ok := defaultStatus[e.Type]; ok {
		return status
	}
	return 500
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// AuthError creates a new authentication error
func AuthError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeAuth,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// TimeoutError creates a new timeout error
func TimeoutError(operation string) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("timeout during %s", operation),
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Message: fmt.Sprintf("rate limit exceeded for %s", resource),
	}
}

// AuthorizationDeniedError wraps the error string the provider attached to the
// callback. The provider's text is the whole message, matching what the user
// saw on the consent screen.
func AuthorizationDeniedError(providerError string) *AppError {
	if providerError == "" {
		providerError = "authorization denied by provider"
	}
	return &AppError{
		Type:    ErrTypeAuthorizationDenied,
		Message: providerError,
	}
}

// StateExpiredError creates the error for a callback whose pending state was
// not found: replayed, timed out, or never registered.
func StateExpiredError() *AppError {
	return &AppError{
		Type:    ErrTypeStateExpired,
		Message: "oauth state expired or missing",
	}
}

// StateMismatchError creates the error for a nonce comparison failure.
func StateMismatchError() *AppError {
	return &AppError{
		Type:    ErrTypeStateMismatch,
		Message: "state mismatch detected",
	}
}

// TokenExchangeError carries the provider's status and response body from a
// failed authorization-code grant.
func TokenExchangeError(status int, body string) *AppError {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = "token exchange failed"
	}
	return &AppError{
		Type:    ErrTypeTokenExchange,
		Message: msg,
		Status:  status,
	}
}

// TokenRefreshError carries the provider's status from a failed refresh-token
// grant; the response body rides along as context.
func TokenRefreshError(status int, body string) *AppError {
	err := &AppError{
		Type:    ErrTypeTokenRefresh,
		Message: "token refresh failed",
		Status:  status,
	}
	if body = strings.TrimSpace(body); body != "" {
		err = err.WithContext("provider_body", body)
	}
	return err
}

// NoCredentialsError creates the error for a credential cache miss.
func NoCredentialsError() *AppError {
	return &AppError{
		Type:    ErrTypeNoCredentials,
		Message: "no credentials found or expired",
	}
}

// ResourceFetchError carries the provider's status and response body from a
// failed resource call.
func ResourceFetchError(status int, body string) *AppError {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = "resource fetch failed"
	}
	return &AppError{
		Type:    ErrTypeResourceFetch,
		Message: msg,
		Status:  status,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}

// HTTPStatusFor resolves the HTTP status for any error; non-AppError values
// surface as 500.
func HTTPStatusFor(err error) int {
	if err == nil {
		return 200
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr.HTTPStatus()
	}
	return 500
}
