package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/internal/bootstrap"
	"github.com/buildwise-ai/buildwise-backend/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Driver != bootstrap.DriverPostgres {
			return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
		}
		ctx := cmd.Context()
		db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.PostgresDSN()})
		if err != nil {
			return err
		}
		defer db.Close()

		ms, err := postgres.Migrations()
		if err != nil {
			return err
		}
		applied, err := postgres.Migrate(ctx, db, ms)
		if err != nil {
			return err
		}
		if applied == nil {
			applied = []int{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
