package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalid is the base error for configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the configuration for errors. It returns an error
// describing the first problem found, wrapped in ErrInvalid.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateStore(&cfg.Store); err != nil {
		return err
	}
	if err := validateInference(&cfg.Inference); err != nil {
		return err
	}
	if err := validateLimits(&cfg.Limits); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return fmt.Errorf("%w: server.listen_address %q: %v", ErrInvalid, cfg.ListenAddress, err)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalid)
	}
	return nil
}

func validateStore(cfg *StoreConfig) error {
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: store.backend must be \"memory\" or \"sqlite\", got %q",
			ErrInvalid, cfg.Backend)
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		return fmt.Errorf("%w: store.sqlite.path is required for the sqlite backend", ErrInvalid)
	}
	return nil
}

func validateInference(cfg *InferenceConfig) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: inference.base_url is required", ErrInvalid)
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("%w: inference.base_url must be an http(s) URL, got %q",
			ErrInvalid, cfg.BaseURL)
	}
	if cfg.MaxTokens < 1 {
		return fmt.Errorf("%w: inference.max_tokens must be positive", ErrInvalid)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: inference.timeout must be positive", ErrInvalid)
	}
	for model, units := range cfg.UnitsPer1KTokens {
		if units < 0 {
			return fmt.Errorf("%w: inference.units_per_1k_tokens[%q] must not be negative",
				ErrInvalid, model)
		}
	}
	return nil
}

func validateLimits(cfg *LimitsConfig) error {
	if cfg.RequestsPerHour < 1 {
		return fmt.Errorf("%w: limits.requests_per_hour must be positive", ErrInvalid)
	}
	if cfg.RequestsPerDay < 1 {
		return fmt.Errorf("%w: limits.requests_per_day must be positive", ErrInvalid)
	}
	if cfg.UnitsPerDay < 1 {
		return fmt.Errorf("%w: limits.units_per_day must be positive", ErrInvalid)
	}
	if cfg.RequestsPerHour > cfg.RequestsPerDay {
		return fmt.Errorf("%w: limits.requests_per_hour (%d) exceeds requests_per_day (%d)",
			ErrInvalid, cfg.RequestsPerHour, cfg.RequestsPerDay)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("%w: limits.session_ttl must be positive", ErrInvalid)
	}
	return nil
}
