// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Checker  CheckerConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without it check history is disabled.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// MessagesDir is the root directory of message records (default: ./data/messages)
	MessagesDir string `env:"MESSAGES_DIR" default:"data/messages"`
}

// CheckerConfig holds check processing settings.
type CheckerConfig struct {
	// MaxConcurrent is the maximum number of parallel checks (default: 4)
	MaxConcurrent int `env:"CHECK_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a check slot (default: 30s)
	MaxWaitTime time.Duration `env:"CHECK_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single check (default: 5m)
	Timeout time.Duration `env:"CHECK_TIMEOUT" default:"5m"`

	// MaxRows is the largest dataset accepted, in rows (default: 500000)
	MaxRows int `env:"CHECK_MAX_ROWS" default:"500000"`

	// MaxBodySize is the maximum request body size in bytes (default: 100MB)
	MaxBodySize int64 `env:"CHECK_MAX_BODY_SIZE" default:"104857600"`

	// RulesFile is an optional YAML file replacing the built-in checker rules
	RulesFile string `env:"CHECKER_RULES_FILE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds check history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long check run summaries are kept (default: 365)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"365"`

	// PurgeSchedule is a cron expression for the purge job (default: @daily)
	PurgeSchedule string `env:"HISTORY_PURGE_SCHEDULE" default:"@daily"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
