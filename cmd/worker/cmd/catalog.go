package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/internal/bootstrap"
	"github.com/buildwise-ai/buildwise-backend/internal/catalog"
	catalogsvc "github.com/buildwise-ai/buildwise-backend/internal/catalog/service"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage designers, materials and regions",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Upsert catalog entries from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := catalog.LoadSeed(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		stores, err := bootstrap.OpenStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer stores.Close(ctx)

		res, err := catalogsvc.NewCatalogService(stores.Repositories().Catalog).Seed(ctx, seed)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	catalogCmd.AddCommand(catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}
