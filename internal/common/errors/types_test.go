package errors

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "configuration is invalid",
			},
			want: "config: configuration is invalid",
		},
		{
			name: "error with status",
			appError: &AppError{
				Type:    ErrTypeTokenExchange,
				Message: "token exchange failed",
				Status:  403,
			},
			want: "token_exchange: token exchange failed: status=403",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConnection,
				Message: "redis connection failed",
				Cause:   errors.New("network timeout"),
			},
			want: "connection: redis connection failed: cause=network timeout",
		},
		{
			name: "error with context",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "field validation failed",
				Context: map[string]interface{}{
					"field": "user_id",
				},
			},
			want: "validation: field validation failed: context={field=user_id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appError := &AppError{
		Type:    ErrTypeInternal,
		Message: "wrapper error",
		Cause:   cause,
	}

	unwrapped := appError.Unwrap()
	if unwrapped != cause {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test without cause
	appErrorNoCause := &AppError{
		Type:    ErrTypeConfig,
		Message: "no cause error",
	}

	unwrappedNoCause := appErrorNoCause.Unwrap()
	if unwrappedNoCause != nil {
		t.Errorf("AppError.Unwrap() without cause = %v, want nil", unwrappedNoCause)
	}
}

func TestAppError_WithContext(t *testing.T) {
	appError := &AppError{
		Type:    ErrTypeValidation,
		Message: "validation failed",
	}

	result := appError.WithContext("field", "org_id")

	if result != appError {
		t.Error("WithContext should return the same instance")
	}

	if appError.Context == nil {
		t.Error("Context should be initialized")
	}

	if appError.Context["field"] != "org_id" {
		t.Errorf("Context[field] = %v, want org_id", appError.Context["field"])
	}

	// Add another context value
	appError.WithContext("value", "invalid")

	if len(appError.Context) != 2 {
		t.Errorf("Context length = %d, want 2", len(appError.Context))
	}
}

func TestAppError_WithStatus(t *testing.T) {
	appError := &AppError{
		Type:    ErrTypeAuth,
		Message: "authentication failed",
	}

	result := appError.WithStatus(403)

	if result != appError {
		t.Error("WithStatus should return the same instance")
	}

	if appError.Status != 403 {
		t.Errorf("Status = %v, want 403", appError.Status)
	}
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{
			name: "explicit status wins",
			err:  TokenExchangeError(418, "teapot"),
			want: 418,
		},
		{
			name: "validation default",
			err:  ValidationError("missing code or state"),
			want: 400,
		},
		{
			name: "state expired default",
			err:  StateExpiredError(),
			want: 400,
		},
		{
			name: "no credentials default",
			err:  NoCredentialsError(),
			want: 400,
		},
		{
			name: "rate limit default",
			err:  RateLimitError("authorize"),
			want: 429,
		},
		{
			name: "auth default",
			err:  AuthError("missing bearer token"),
			want: 401,
		},
		{
			name: "unknown type falls back to 500",
			err:  &AppError{Type: ErrorType("mystery"), Message: "?"},
			want: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthorizationDeniedError(t *testing.T) {
	err := AuthorizationDeniedError("access_denied")

	if err.Type != ErrTypeAuthorizationDenied {
		t.Errorf("Type = %v, want %v", err.Type, ErrTypeAuthorizationDenied)
	}

	if err.Message != "access_denied" {
		t.Errorf("Message = %v, want 'access_denied'", err.Message)
	}

	// Empty provider text falls back to a generic message
	fallback := AuthorizationDeniedError("")
	if fallback.Message == "" {
		t.Error("empty provider error should produce a non-empty message")
	}
}

func TestStateErrors(t *testing.T) {
	expired := StateExpiredError()
	if expired.Type != ErrTypeStateExpired {
		t.Errorf("Type = %v, want %v", expired.Type, ErrTypeStateExpired)
	}

	mismatch := StateMismatchError()
	if mismatch.Type != ErrTypeStateMismatch {
		t.Errorf("Type = %v, want %v", mismatch.Type, ErrTypeStateMismatch)
	}

	if expired.Message == mismatch.Message {
		t.Error("expired and mismatch must be distinguishable by message")
	}
}

func TestTokenExchangeError(t *testing.T) {
	err := TokenExchangeError(400, `{"error":"invalid_grant"}`)

	if err.Type != ErrTypeTokenExchange {
		t.Errorf("Type = %v, want %v", err.Type, ErrTypeTokenExchange)
	}

	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}

	if err.Message != `{"error":"invalid_grant"}` {
		t.Errorf("Message = %v, want provider body", err.Message)
	}

	// Empty body gets a readable fallback
	empty := TokenExchangeError(500, "")
	if empty.Message != "token exchange failed" {
		t.Errorf("Message = %v, want fallback", empty.Message)
	}
}

func TestTokenRefreshError(t *testing.T) {
	err := TokenRefreshError(401, `{"error":"invalid_refresh_token"}`)

	if err.Type != ErrTypeTokenRefresh {
		t.Errorf("Type = %v, want %v", err.Type, ErrTypeTokenRefresh)
	}

	if err.Status != 401 {
		t.Errorf("Status = %d, want 401", err.Status)
	}

	if err.Message != "token refresh failed" {
		t.Errorf("Message = %v, want 'token refresh failed'", err.Message)
	}

	if err.Context["provider_body"] != `{"error":"invalid_refresh_token"}` {
		t.Errorf("provider_body context = %v, want raw body", err.Context["provider_body"])
	}
}

func TestResourceFetchError(t *testing.T) {
	err := ResourceFetchError(429, "rate limited")

	if err.Type != ErrTypeResourceFetch {
		t.Errorf("Type = %v, want %v", err.Type, ErrTypeResourceFetch)
	}

	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}

	if err.Message != "rate limited" {
		t.Errorf("Message = %v, want 'rate limited'", err.Message)
	}
}

func TestNoCredentialsError(t *testing.T) {
	err := NoCredentialsError()

	if err.Type != ErrTypeNoCredentials {
		t.Errorf("Type = %v, want %v", err.Type, ErrTypeNoCredentials)
	}

	if err.Message != "no credentials found or expired" {
		t.Errorf("Message = %v, want 'no credentials found or expired'", err.Message)
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{
			name:    "matching type",
			err:     StateExpiredError(),
			errType: ErrTypeStateExpired,
			want:    true,
		},
		{
			name:    "non-matching type",
			err:     StateExpiredError(),
			errType: ErrTypeStateMismatch,
			want:    false,
		},
		{
			name:    "non-app error",
			err:     errors.New("regular error"),
			errType: ErrTypeConfig,
			want:    false,
		},
		{
			name:    "nil error",
			err:     nil,
			errType: ErrTypeConfig,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsType(tt.err, tt.errType)
			if got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "app error",
			err:  ConfigError("test"),
			want: ErrTypeConfig,
		},
		{
			name: "regular error",
			err:  errors.New("regular error"),
			want: ErrTypeInternal,
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetType(tt.err)
			if got != tt.want {
				t.Errorf("GetType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatusFor(t *testing.T) {
	if got := HTTPStatusFor(nil); got != 200 {
		t.Errorf("HTTPStatusFor(nil) = %d, want 200", got)
	}

	if got := HTTPStatusFor(errors.New("plain")); got != 500 {
		t.Errorf("HTTPStatusFor(plain error) = %d, want 500", got)
	}

	if got := HTTPStatusFor(ResourceFetchError(404, "gone")); got != 404 {
		t.Errorf("HTTPStatusFor(resource fetch 404) = %d, want 404", got)
	}
}

func TestErrorConstantsValues(t *testing.T) {
	// Wire-visible type names; handlers serialize these
	expectedTypes := map[ErrorType]string{
		ErrTypeConnection:          "connection",
		ErrTypeValidation:          "validation",
		ErrTypeConfig:              "config",
		ErrTypeAuth:                "authentication",
		ErrTypeNotFound:            "not_found",
		ErrTypeInternal:            "internal",
		ErrTypeTimeout:             "timeout",
		ErrTypeRateLimit:           "rate_limit",
		ErrTypeAuthorizationDenied: "authorization_denied",
		ErrTypeStateExpired:        "state_expired",
		ErrTypeStateMismatch:       "state_mismatch",
		ErrTypeTokenExchange:       "token_exchange",
		ErrTypeTokenRefresh:        "token_refresh",
		ErrTypeNoCredentials:       "no_credentials",
		ErrTypeResourceFetch:       "resource_fetch",
	}

	for errType, expectedValue := range expectedTypes {
		if string(errType) != expectedValue {
			t.Errorf("Error type %v = %v, want %v", errType, string(errType), expectedValue)
		}
	}
}

func TestErrorChaining(t *testing.T) {
	// Test error chaining with Go's error handling
	originalErr := errors.New("original error")
	wrappedErr := InternalError("wrapped error", originalErr)

	// Test errors.Is
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("errors.Is should work with wrapped AppError")
	}

	// Test errors.As
	var appErr *AppError
	if !errors.As(wrappedErr, &appErr) {
		t.Error("errors.As should work with AppError")
	}

	if appErr.Type != ErrTypeInternal {
		t.Errorf("Unwrapped AppError type = %v, want %v", appErr.Type, ErrTypeInternal)
	}
}
