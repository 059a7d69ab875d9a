package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/internal/sweeper"
)

var sweepMaxAge time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale enhancement work dirs once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		maxAge := cfg.App.SweepMaxAge
		if sweepMaxAge > 0 {
			maxAge = sweepMaxAge
		}
		n, err := sweeper.New(cfg.Enhance.WorkDir, maxAge).Sweep(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"removed": n, "dir": cfg.Enhance.WorkDir})
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 0, "override SWEEP_MAX_AGE")
	rootCmd.AddCommand(sweepCmd)
}
