// Package cmd holds the operator commands of the BuildWise worker.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/config"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "BuildWise operator commands",
	Long: `Operator commands that run outside the API process.

Examples:
  # Enhance a floor plan image with the processing tool
  worker enhance plan.png --out enhanced.png --scheme blueprint --3d

  # Copy a template into a project
  worker templates copy modern-3bed bw-12345-6789

  # Load designers, materials and regions
  worker catalog seed seeds/catalog.yaml

  # Apply the Postgres schema
  worker migrate`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
