package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 90 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Store defaults
	DefaultStoreBackend      = "memory"
	DefaultSQLitePath        = "data/neurongate.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second
	DefaultSweepSchedule     = "@hourly"

	// Inference defaults
	DefaultInferenceModel     = "base"
	DefaultInferenceMaxTokens = 512
	DefaultInferenceTimeout   = 60 * time.Second

	// Limits defaults (free-tier budget)
	DefaultRequestsPerHour = int64(20)
	DefaultRequestsPerDay  = int64(100)
	DefaultUnitsPerDay     = int64(300)
	DefaultSessionTTL      = 24 * time.Hour

	// History defaults
	DefaultHistoryEnabled     = true
	DefaultHistoryMaxMessages = 200

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "neurongate"
)

// ApplyDefaults fills in default values for all unset configuration fields.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// CORS defaults. Enabled is a pointer so an explicit false in the
	// file is distinguishable from the field being absent.
	if cfg.Server.CORS.Enabled == nil {
		cfg.Server.CORS.Enabled = boolPtr(DefaultCORSEnabled)
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Content-Type", "X-Session-ID", "X-Request-ID"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Store.SweepSchedule == "" {
		cfg.Store.SweepSchedule = DefaultSweepSchedule
	}

	// Inference defaults
	if cfg.Inference.DefaultModel == "" {
		cfg.Inference.DefaultModel = DefaultInferenceModel
	}
	if cfg.Inference.MaxTokens == 0 {
		cfg.Inference.MaxTokens = DefaultInferenceMaxTokens
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = DefaultInferenceTimeout
	}

	// Limits defaults
	if cfg.Limits.RequestsPerHour == 0 {
		cfg.Limits.RequestsPerHour = DefaultRequestsPerHour
	}
	if cfg.Limits.RequestsPerDay == 0 {
		cfg.Limits.RequestsPerDay = DefaultRequestsPerDay
	}
	if cfg.Limits.UnitsPerDay == 0 {
		cfg.Limits.UnitsPerDay = DefaultUnitsPerDay
	}
	if cfg.Limits.SessionTTL == 0 {
		cfg.Limits.SessionTTL = DefaultSessionTTL
	}

	// History defaults
	if cfg.History.Enabled == nil {
		cfg.History.Enabled = boolPtr(DefaultHistoryEnabled)
	}
	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = DefaultHistoryMaxMessages
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = boolPtr(DefaultMetricsEnabled)
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

func boolPtr(b bool) *bool {
	return &b
}
