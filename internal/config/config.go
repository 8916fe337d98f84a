// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"

	"github.com/JonMunkholm/covidboard/internal/merge"
	"github.com/JonMunkholm/covidboard/internal/provider"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Dispatch DispatchConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataConfig holds the raw dataset locations and merge settings.
type DataConfig struct {
	// Dir is the directory holding the three raw CSV files (required)
	Dir string `env:"DATA_DIR" required:"true"`

	MainFile        string `env:"DATA_MAIN_FILE" default:"covid_daily_full.csv"`
	SecondaryFile   string `env:"DATA_SECONDARY_FILE" default:"owid-covid-data.csv"`
	VaccinationFile string `env:"DATA_VACCINATION_FILE" default:"country_vaccinations_by_manufacturer.csv"`

	// SecondarySuffix is appended to colliding secondary columns (default: _owid)
	SecondarySuffix string `env:"DATA_SECONDARY_SUFFIX" default:"_owid"`

	// VaccinationSuffix is appended to colliding vaccination columns (default: _vacc_manufacturer)
	VaccinationSuffix string `env:"DATA_VACCINATION_SUFFIX" default:"_vacc_manufacturer"`

	// DropColumns are removed from the unified table after the merge
	DropColumns []string `env:"DATA_DROP_COLUMNS"`

	// PivotVaccines reshapes per-manufacturer rows to one row per key (default: true)
	PivotVaccines bool `env:"DATA_PIVOT_VACCINES" default:"true"`

	// RefreshInterval reloads the data periodically; 0 disables (default: 0s)
	RefreshInterval time.Duration `env:"DATA_REFRESH_INTERVAL" default:"0s"`

	// LoadTimeout bounds one load cycle (default: 2m)
	LoadTimeout time.Duration `env:"DATA_LOAD_TIMEOUT" default:"2m"`
}

// DispatchConfig bounds concurrent country module runs.
type DispatchConfig struct {
	// MaxConcurrent is the number of handlers that may run at once (default: 4)
	MaxConcurrent int `env:"DISPATCH_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a request waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"DISPATCH_MAX_WAIT" default:"10s"`
}

// DatabaseConfig holds database connection settings. The database is
// optional; without a URL snapshots are not exported.
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

	// ExportTable receives one row per unified row (default: covid_unified_rows)
	ExportTable string `env:"DB_EXPORT_TABLE" default:"covid_unified_rows"`

	// KeepLoads is how many exported loads to retain; 0 keeps all (default: 5)
	KeepLoads int `env:"DB_KEEP_LOADS" default:"5"`
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

	// RequireAPIKey protects the reload endpoint with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// Files returns the raw file names for the directory provider.
func (c *DataConfig) Files() provider.Files {
	return provider.Files{
		Main:        c.MainFile,
		Secondary:   c.SecondaryFile,
		Vaccination: c.VaccinationFile,
	}
}

// MergeOptions returns the merge engine settings.
func (c *DataConfig) MergeOptions() merge.Options {
	opts := merge.DefaultOptions()
	opts.SecondarySuffix = c.SecondarySuffix
	opts.VaccinationSuffix = c.VaccinationSuffix
	opts.PivotVaccines = c.PivotVaccines
	opts.DropColumns = append([]string(nil), c.DropColumns...)
	return opts
}

// Enabled reports whether snapshots are exported to Postgres.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
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
