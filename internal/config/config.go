// Package config loads service settings from environment variables, applies
// defaults, and validates everything at startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds file parsing and column matching settings.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 25MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"26214400"`

	// MatchThreshold is the largest header distance accepted as a match,
	// from 0 (identical) to 1 (unrelated).
	MatchThreshold float64 `env:"IMPORT_MATCH_THRESHOLD" default:"0.4"`

	// SampleRows is how many leading rows the column matcher sees.
	SampleRows int `env:"IMPORT_SAMPLE_ROWS" default:"5"`

	// MaxConcurrentParses bounds simultaneous file decoding.
	MaxConcurrentParses int `env:"IMPORT_MAX_CONCURRENT_PARSES" default:"4"`

	// ParseWaitTime is how long an upload waits for a parse slot.
	ParseWaitTime time.Duration `env:"IMPORT_PARSE_WAIT_TIME" default:"15s"`
}

// SessionConfig controls how long unfinished imports are kept in memory.
type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL" default:"2h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"10m"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit applies to file upload endpoints only.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds proxy trust and API key settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of CIDRs allowed to set
	// X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
