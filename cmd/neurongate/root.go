package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "neurongate",
	Short: "NeuronGate - rate-limited chat gateway",
	Long: `NeuronGate is a thin chat gateway over a hosted inference API.

It provides:
  - Anonymous sessions with a sliding 24-hour expiry
  - Hourly and daily request limits per session
  - A daily neuron (consumption unit) budget per session
  - Conversation transcripts with pagination
  - Memory or SQLite key-value backends`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
