package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, applies defaults, applies
// NEURONGATE_* environment variable overrides, and validates the result.
//
// The loading sequence is:
//  1. Parse YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadDefault returns a configuration built entirely from defaults and
// environment overrides, for running without a config file.
func LoadDefault() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Variables use
// the format NEURONGATE_SECTION_FIELD and always take precedence over
// file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("NEURONGATE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if d, ok := envDuration("NEURONGATE_SERVER_READ_TIMEOUT"); ok {
		cfg.Server.ReadTimeout = d
	}
	if d, ok := envDuration("NEURONGATE_SERVER_WRITE_TIMEOUT"); ok {
		cfg.Server.WriteTimeout = d
	}

	// Store overrides
	if val := os.Getenv("NEURONGATE_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("NEURONGATE_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}
	if val := os.Getenv("NEURONGATE_STORE_SWEEP_SCHEDULE"); val != "" {
		cfg.Store.SweepSchedule = val
	}

	// Inference overrides
	if val := os.Getenv("NEURONGATE_INFERENCE_BASE_URL"); val != "" {
		cfg.Inference.BaseURL = val
	}
	if val := os.Getenv("NEURONGATE_INFERENCE_API_KEY"); val != "" {
		cfg.Inference.APIKey = val
	}
	if val := os.Getenv("NEURONGATE_INFERENCE_DEFAULT_MODEL"); val != "" {
		cfg.Inference.DefaultModel = val
	}
	if d, ok := envDuration("NEURONGATE_INFERENCE_TIMEOUT"); ok {
		cfg.Inference.Timeout = d
	}

	// Limits overrides
	if n, ok := envInt64("NEURONGATE_LIMITS_REQUESTS_PER_HOUR"); ok {
		cfg.Limits.RequestsPerHour = n
	}
	if n, ok := envInt64("NEURONGATE_LIMITS_REQUESTS_PER_DAY"); ok {
		cfg.Limits.RequestsPerDay = n
	}
	if n, ok := envInt64("NEURONGATE_LIMITS_UNITS_PER_DAY"); ok {
		cfg.Limits.UnitsPerDay = n
	}
	if d, ok := envDuration("NEURONGATE_LIMITS_SESSION_TTL"); ok {
		cfg.Limits.SessionTTL = d
	}

	// Telemetry overrides
	if val := os.Getenv("NEURONGATE_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("NEURONGATE_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}

// envDuration parses a duration environment variable.
func envDuration(name string) (time.Duration, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

// envInt64 parses an integer environment variable.
func envInt64(name string) (int64, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
