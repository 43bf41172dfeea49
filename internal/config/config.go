// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage: "postgres" (DATABASE_URL required) or "memory"
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Cache (Redis). Optional: without it sessions live in the store and
	// rate limiting is disabled.
	RedisURL string `env:"REDIS_URL"`

	// Public base URL used to build share links
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Accounts
	AllowedEmailDomains []string      `env:"ALLOWED_EMAIL_DOMAINS" envSeparator:"," envDefault:"gmail.com"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	MinPasswordLength   int           `env:"MIN_PASSWORD_LENGTH" envDefault:"0"`

	// Quotas
	MaxActiveKeys       int `env:"MAX_ACTIVE_KEYS" envDefault:"2"`
	MaxPastesPerAccount int `env:"MAX_PASTES_PER_ACCOUNT" envDefault:"10"`
	MaxPasteBytes       int `env:"MAX_PASTE_BYTES" envDefault:"524288"`

	// Rate limiting
	RateLimitAPIEnabled       bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIPerMinute     int  `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"60"`
	RateLimitAPIBurst         int  `env:"RATE_LIMIT_API_BURST" envDefault:"10"`
	RateLimitPublicEnabled    bool `env:"RATE_LIMIT_PUBLIC_ENABLED" envDefault:"true"`
	RateLimitPublicRPS        int  `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"20"`
	RateLimitPublicBurst      int  `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"40"`
	RateLimitSessionEnabled   bool `env:"RATE_LIMIT_SESSION_ENABLED" envDefault:"true"`
	RateLimitSessionPerMinute int  `env:"RATE_LIMIT_SESSION_PER_MINUTE" envDefault:"120"`
	RateLimitSessionBurst     int  `env:"RATE_LIMIT_SESSION_BURST" envDefault:"30"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// EmailDomains returns the normalized allowed email domains.
func (c *Config) EmailDomains() []string {
	result := make([]string, 0, len(c.AllowedEmailDomains))
	for _, d := range c.AllowedEmailDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			result = append(result, d)
		}
	}
	return result
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreBackend))
	}

	if len(c.EmailDomains()) == 0 {
		errs = append(errs, errors.New("ALLOWED_EMAIL_DOMAINS must list at least one domain"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MinPasswordLength < 0 {
		errs = append(errs, errors.New("MIN_PASSWORD_LENGTH must not be negative"))
	}
	if c.MaxPasteBytes <= 0 {
		errs = append(errs, errors.New("MAX_PASTE_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
