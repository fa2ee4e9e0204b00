// Package config provides configuration management for the HubSpot connector
// service. It handles loading configuration from environment variables with
// sensible defaults and validates the configuration to ensure the application
// starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - HOST: Listen address (default: 0.0.0.0)
//   - PORT: Server port (default: 8000)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path; empty logs to stdout
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// HubSpot OAuth Application:
//   - HUBSPOT_CLIENT_ID: OAuth client id (required)
//   - HUBSPOT_CLIENT_SECRET: OAuth client secret (required)
//   - HUBSPOT_REDIRECT_URI: Callback URL registered with the provider
//     (default: http://localhost:8000/integrations/hubspot/oauth2callback)
//   - HUBSPOT_AUTH_URL: Authorization base URL
//   - HUBSPOT_TOKEN_URL: Token endpoint URL
//   - HUBSPOT_CONTACTS_URL: Contacts resource URL
//   - HUBSPOT_SCOPES: Space-separated OAuth scopes (default: crm.objects.contacts.read)
//
// Credential Lifecycle:
//   - STATE_TTL_SECONDS: Pending authorization state lifetime (default: 600)
//   - CREDENTIALS_TTL_SECONDS: Credential cache lifetime (default: 600)
//   - RENEWAL_BUFFER_SECONDS: Proactive refresh margin before expiry (default: 300)
//   - CONTACTS_PAGE_LIMIT: Page size for contact listing (default: 10)
//   - HTTP_TIMEOUT_SECONDS: Outbound HTTP client timeout (default: 30)
//
// Security Configuration:
//   - CREDENTIALS_ENCRYPTION_KEY: Key for encrypting stored credentials;
//     empty disables at-rest encryption
//   - API_AUTH_SECRET: Bearer token signing secret for the API routes;
//     empty disables the auth middleware (minimum 32 characters when set)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable rate limiting on the authorize route (default: false)
//   - RATE_LIMIT_BACKEND: "redis" or "local" (default: redis)
//   - RATE_LIMIT_REQUESTS: Requests allowed per window (default: 60)
//   - RATE_LIMIT_WINDOW_SECONDS: Rate limit window (default: 60)
//
// Background Refresh:
//   - REFRESH_SWEEP_SCHEDULE: Cron expression for the credential refresh sweep;
//     empty disables the sweeper
//
// Example usage:
//
//	config := config.Load()
//	if err := config.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration values for the HubSpot connector service.
// All fields originate from environment variables; numeric and duration
// fields are parsed at load time with defaults substituted for unset or
// unparsable values.
//
// The configuration is loaded with Load() and should be validated with
// Validate() before use. It is immutable after load; components receive the
// values they need through their constructors.
type Config struct {
	// Application settings
	Host     string // Listen address
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)
	LogFile  string // Log file path; empty logs to stdout

	// Redis configuration for the expiring credential store
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// HubSpot OAuth application
	HubSpotClientID     string // OAuth client id (required)
	HubSpotClientSecret string // OAuth client secret (required)
	HubSpotRedirectURI  string // Registered callback URL
	HubSpotAuthURL      string // Authorization base URL
	HubSpotTokenURL     string // Token endpoint URL
	HubSpotContactsURL  string // Contacts resource URL
	HubSpotScopes       string // Space-separated OAuth scopes

	// Credential lifecycle windows
	StateTTL          time.Duration // Pending authorization state lifetime
	CredentialsTTL    time.Duration // Credential cache lifetime
	RenewalBuffer     time.Duration // Proactive refresh margin before expiry
	ContactsPageLimit int           // Page size for contact listing
	HTTPTimeout       time.Duration // Outbound HTTP client timeout

	// Security configuration
	EncryptionKey string // Key for at-rest credential encryption; empty disables
	APIAuthSecret string // Bearer token signing secret; empty disables auth

	// Rate limiting configuration
	RateLimitEnabled  bool          // Whether the authorize route is rate limited
	RateLimitBackend  string        // "redis" or "local"
	RateLimitRequests int           // Requests allowed per window
	RateLimitWindow   time.Duration // Rate limiting time window

	// Background refresh sweep
	RefreshSweepSchedule string // Cron expression; empty disables the sweeper
}

// Load creates a new Config instance with values loaded from environment
// variables. If an environment variable is not set, the corresponding default
// value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Redis configuration
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		// HubSpot OAuth application
		HubSpotClientID:     getEnv("HUBSPOT_CLIENT_ID", ""),
		HubSpotClientSecret: getEnv("HUBSPOT_CLIENT_SECRET", ""),
		HubSpotRedirectURI:  getEnv("HUBSPOT_REDIRECT_URI", "http://localhost:8000/integrations/hubspot/oauth2callback"),
		HubSpotAuthURL:      getEnv("HUBSPOT_AUTH_URL", "https://app.hubspot.com/oauth/authorize"),
		HubSpotTokenURL:     getEnv("HUBSPOT_TOKEN_URL", "https://api.hubapi.com/oauth/v1/token"),
		HubSpotContactsURL:  getEnv("HUBSPOT_CONTACTS_URL", "https://api.hubapi.com/crm/v3/objects/contacts"),
		HubSpotScopes:       getEnv("HUBSPOT_SCOPES", "crm.objects.contacts.read"),

		// Credential lifecycle windows
		StateTTL:          getDurationEnv("STATE_TTL_SECONDS", 600),
		CredentialsTTL:    getDurationEnv("CREDENTIALS_TTL_SECONDS", 600),
		RenewalBuffer:     getDurationEnv("RENEWAL_BUFFER_SECONDS", 300),
		ContactsPageLimit: getIntEnv("CONTACTS_PAGE_LIMIT", 10),
		HTTPTimeout:       getDurationEnv("HTTP_TIMEOUT_SECONDS", 30),

		// Security configuration
		EncryptionKey: getEnv("CREDENTIALS_ENCRYPTION_KEY", ""),
		APIAuthSecret: getEnv("API_AUTH_SECRET", ""),

		// Rate limiting configuration
		RateLimitEnabled:  getBoolEnv("RATE_LIMIT_ENABLED", false),
		RateLimitBackend:  getEnv("RATE_LIMIT_BACKEND", "redis"),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW_SECONDS", 60),

		// Background refresh sweep
		RefreshSweepSchedule: getEnv("REFRESH_SWEEP_SCHEDULE", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value
// if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a
// default value if not set or unparsable.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a
// default value.
//
// This function accepts common boolean representations:
//   - "true", "1", "t", "TRUE", "True" -> true
//   - "false", "0", "f", "FALSE", "False" -> false
//   - Any other value or parsing error -> returns defaultValue
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves an environment variable holding a number of
// seconds and returns it as a time.Duration, or the default when unset or
// unparsable.
func getDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defaultSeconds)) * time.Second
}

// sweepScheduleParser accepts the cron format used for the refresh sweep:
// six fields with a leading seconds column.
var sweepScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate performs comprehensive validation on the configuration to ensure
// all required fields are present and all values are valid.
//
// This method checks:
//   - Required fields (HUBSPOT_CLIENT_ID, HUBSPOT_CLIENT_SECRET)
//   - Field format validation (ports, durations, cron expressions)
//   - Security requirements (secret lengths, valid ranges)
//
// The application should call this method after loading configuration and
// before starting to ensure safe operation.
func (c *Config) Validate() error {
	// Validate required fields
	if c.HubSpotClientID == "" {
		return fmt.Errorf("HUBSPOT_CLIENT_ID environment variable is required")
	}
	if c.HubSpotClientSecret == "" {
		return fmt.Errorf("HUBSPOT_CLIENT_SECRET environment variable is required")
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	// Validate Redis config
	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
	}
	if c.RedisPoolSize < 1 {
		return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
	}

	// Validate credential lifecycle windows
	if c.StateTTL <= 0 {
		return fmt.Errorf("STATE_TTL_SECONDS must be a positive number")
	}
	if c.CredentialsTTL <= 0 {
		return fmt.Errorf("CREDENTIALS_TTL_SECONDS must be a positive number")
	}
	if c.RenewalBuffer <= 0 {
		return fmt.Errorf("RENEWAL_BUFFER_SECONDS must be a positive number")
	}
	if c.ContactsPageLimit < 1 {
		return fmt.Errorf("CONTACTS_PAGE_LIMIT must be a positive number")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be a positive number")
	}

	// Validate auth secret length when auth is enabled
	if c.APIAuthSecret != "" && len(c.APIAuthSecret) < 32 {
		return fmt.Errorf("API_AUTH_SECRET must be at least 32 characters long for security")
	}

	// Validate encryption key length when at-rest encryption is enabled
	if c.EncryptionKey != "" && len(c.EncryptionKey) < 16 {
		return fmt.Errorf("CREDENTIALS_ENCRYPTION_KEY must be at least 16 characters long when provided")
	}

	// Validate rate limit config
	if c.RateLimitEnabled {
		switch c.RateLimitBackend {
		case "redis", "local":
			// Valid backends
		default:
			return fmt.Errorf("RATE_LIMIT_BACKEND must be 'redis' or 'local'")
		}
		if c.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be a positive number")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be a positive number")
		}
	}

	// Validate sweep schedule when the sweeper is enabled
	if c.RefreshSweepSchedule != "" {
		if _, err := sweepScheduleParser.Parse(c.RefreshSweepSchedule); err != nil {
			return fmt.Errorf("REFRESH_SWEEP_SCHEDULE must be a valid cron expression: %v", err)
		}
	}

	return nil
}

// Addr returns the host:port pair the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
