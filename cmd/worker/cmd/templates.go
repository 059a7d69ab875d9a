package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/config"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and copy floor plan templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}
		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		type row struct {
			ID string `json:"id"`
			templates.Metadata
		}
		out := make([]row, 0, len(list))
		for _, t := range list {
			out = append(out, row{ID: t.ID(), Metadata: t.Metadata})
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var templatesCopyCmd = &cobra.Command{
	Use:   "copy <templateId> <projectId>",
	Short: "Copy a template image and sidecar into a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}
		md, err := store.Copy(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), md)
	},
}

func templateStore() (*templates.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newTemplateStore(cfg), nil
}

func newTemplateStore(cfg *config.Config) *templates.Store {
	images := imagestore.New(imagestore.Options{PublicDir: cfg.Uploads.PublicDir, URLPrefix: cfg.Uploads.URLPrefix})
	return templates.NewStore(cfg.Uploads.TemplatesDir, images)
}

func init() {
	templatesCmd.AddCommand(templatesListCmd, templatesCopyCmd)
	rootCmd.AddCommand(templatesCmd)
}
