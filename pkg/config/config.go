package config

import "time"

// Config is the root configuration structure for NeuronGate.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Store contains key-value store backend configuration.
	Store StoreConfig `yaml:"store"`

	// Inference contains configuration for the hosted model endpoint.
	Inference InferenceConfig `yaml:"inference"`

	// Limits contains the admission budget (requests per hour/day, units
	// per day). This section is hot-reloadable.
	Limits LimitsConfig `yaml:"limits"`

	// History contains conversation transcript configuration.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 90s (generation calls can run long).
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration for the browser-facing API.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted. A nil value
	// means unset and defaults to true; explicit false disables CORS.
	Enabled *bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins; ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists allowed HTTP methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	// Default: ["Content-Type", "X-Session-ID", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache age in seconds. Default: 3600
	MaxAge int `yaml:"max_age"`
}

// StoreConfig selects and configures the key-value store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite". Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// SweepSchedule is the cron schedule for purging expired rows from
	// durable backends. Empty disables sweeping. Default: "@hourly"
	SweepSchedule string `yaml:"sweep_schedule"`
}

// SQLiteConfig configures the SQLite store backend.
type SQLiteConfig struct {
	// Path is the database file path. Default: "data/neurongate.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks. Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// InferenceConfig configures the hosted model endpoint client.
type InferenceConfig struct {
	// BaseURL is the endpoint base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token, if the endpoint requires one. Usually
	// supplied via NEURONGATE_INFERENCE_API_KEY rather than the file.
	APIKey string `yaml:"api_key"`

	// DefaultModel is used when a chat request names no model.
	// Default: "base"
	DefaultModel string `yaml:"default_model"`

	// MaxTokens is the default completion cap. Default: 512
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds each generation call. Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// UnitsPer1KTokens maps model name prefixes to neuron cost per 1000
	// tokens, used when the upstream omits usage data.
	UnitsPer1KTokens map[string]int64 `yaml:"units_per_1k_tokens"`
}

// LimitsConfig contains the admission budget.
type LimitsConfig struct {
	// RequestsPerHour caps admitted requests per UTC calendar hour.
	// Default: 20
	RequestsPerHour int64 `yaml:"requests_per_hour"`

	// RequestsPerDay caps admitted requests per UTC calendar day.
	// Default: 100
	RequestsPerDay int64 `yaml:"requests_per_day"`

	// UnitsPerDay caps consumption units per UTC calendar day.
	// Default: 300
	UnitsPerDay int64 `yaml:"units_per_day"`

	// SessionTTL is the sliding session expiration window. Default: 24h
	SessionTTL time.Duration `yaml:"session_ttl"`

	// Watch enables hot-reload of this section when the config file
	// changes. Default: false
	Watch bool `yaml:"watch"`
}

// HistoryConfig configures conversation transcripts.
type HistoryConfig struct {
	// Enabled controls transcript persistence. A nil value means unset
	// and defaults to true; explicit false disables transcripts.
	Enabled *bool `yaml:"enabled"`

	// MaxMessages caps the retained transcript length. Default: 200
	MaxMessages int `yaml:"max_messages"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level. Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records. Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. A nil value means
	// unset and defaults to true; explicit false removes the route.
	Enabled *bool `yaml:"enabled"`

	// Namespace is the metric namespace. Default: "neurongate"
	Namespace string `yaml:"namespace"`
}
