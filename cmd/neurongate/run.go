package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nexa-hq/neurongate/pkg/config"
	"nexa-hq/neurongate/pkg/gateway"
	"nexa-hq/neurongate/pkg/history"
	"nexa-hq/neurongate/pkg/inference"
	"nexa-hq/neurongate/pkg/kvstore"
	"nexa-hq/neurongate/pkg/quota"
	"nexa-hq/neurongate/pkg/session"
	"nexa-hq/neurongate/pkg/telemetry/logging"
	"nexa-hq/neurongate/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the NeuronGate gateway",
	Long: `Start the gateway with the specified configuration.

The server listens on the configured address and fronts the inference
endpoint with per-session admission control and usage accounting.

Examples:
  # Start with built-in defaults (memory store, localhost:8080); the
  # endpoint comes from NEURONGATE_INFERENCE_BASE_URL or a config file
  neurongate run

  # Start with a config file
  neurongate run --config /etc/neurongate/config.yaml

  # Override the listen address
  neurongate run --listen 0.0.0.0:8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Local .env files supply secrets like the inference API key in
	// development. Missing files are fine.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Key-value store
	store, sweeper, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if sweeper != nil {
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	// Core components
	sessions := session.NewManager(store, session.ManagerConfig{
		TTL:    cfg.Limits.SessionTTL,
		Logger: logger,
	})

	ledger := quota.NewLedger(store, logger)
	engine := quota.NewEngine(ledger, quota.EngineConfig{
		Policy: quota.Policy{
			RequestsPerHour: cfg.Limits.RequestsPerHour,
			RequestsPerDay:  cfg.Limits.RequestsPerDay,
			UnitsPerDay:     cfg.Limits.UnitsPerDay,
		},
	})

	var costs *inference.CostTable
	if len(cfg.Inference.UnitsPer1KTokens) > 0 {
		costs = inference.NewCostTable(cfg.Inference.UnitsPer1KTokens, 0)
	}
	generator := inference.NewClient(inference.ClientConfig{
		BaseURL: cfg.Inference.BaseURL,
		APIKey:  cfg.Inference.APIKey,
		Timeout: cfg.Inference.Timeout,
		Costs:   costs,
		Logger:  logger,
	})

	var hist *history.Store
	if cfg.History.Enabled == nil || *cfg.History.Enabled {
		hist = history.NewStore(store, history.StoreConfig{
			TTL:         cfg.Limits.SessionTTL,
			MaxMessages: cfg.History.MaxMessages,
			Logger:      logger,
		})
	}

	// The collector always exists; the /metrics route is gated on the
	// telemetry config in the server.
	collector := metrics.NewCollector(metrics.Config{
		Namespace: cfg.Telemetry.Metrics.Namespace,
	}, nil)

	// Hot-reload of the limits section
	if cfg.Limits.Watch && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				engine.SetPolicy(quota.Policy{
					RequestsPerHour: next.Limits.RequestsPerHour,
					RequestsPerDay:  next.Limits.RequestsPerDay,
					UnitsPerDay:     next.Limits.UnitsPerDay,
				})
			})
			if err != nil {
				slog.Error("config watcher exited", "error", err)
			}
		}()
	}

	logger.Info("starting gateway",
		"listen_address", cfg.Server.ListenAddress,
		"store_backend", cfg.Store.Backend,
		"requests_per_hour", cfg.Limits.RequestsPerHour,
		"requests_per_day", cfg.Limits.RequestsPerDay,
		"units_per_day", cfg.Limits.UnitsPerDay,
	)

	server := gateway.NewServer(cfg, gateway.Deps{
		Store:     store,
		Sessions:  sessions,
		Engine:    engine,
		Generator: generator,
		History:   hist,
		Collector: collector,
		Logger:    logger,
	})

	return server.Start(ctx)
}

// loadConfig loads the config file when one was given, or builds a
// configuration from defaults and environment overrides.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to build default config: %w", err)
	}
	return cfg, nil
}

// buildStore assembles the configured key-value backend, plus a sweeper
// for backends that need scheduled purging of expired rows.
func buildStore(cfg *config.Config, logger *slog.Logger) (kvstore.Store, *kvstore.Sweeper, error) {
	switch cfg.Store.Backend {
	case "memory":
		return kvstore.NewMemoryStore(), nil, nil

	case "sqlite":
		store, err := kvstore.NewSQLiteStoreWithConfig(kvstore.SQLiteStoreConfig{
			DBPath:      cfg.Store.SQLite.Path,
			BusyTimeout: cfg.Store.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		sweeper := kvstore.NewSweeper(store, cfg.Store.SweepSchedule, logger)
		return store, sweeper, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
