package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nexa-hq/neurongate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

Exits non-zero if the file fails to parse or fails validation.

Examples:
  neurongate validate --config config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  listen address:    %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  store backend:     %s\n", cfg.Store.Backend)
	fmt.Printf("  requests per hour: %d\n", cfg.Limits.RequestsPerHour)
	fmt.Printf("  requests per day:  %d\n", cfg.Limits.RequestsPerDay)
	fmt.Printf("  units per day:     %d\n", cfg.Limits.UnitsPerDay)
	return nil
}
