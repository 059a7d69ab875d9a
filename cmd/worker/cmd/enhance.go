package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildwise-ai/buildwise-backend/internal/bootstrap"
	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
)

var enhanceFlags struct {
	out            string
	scheme         string
	render3D       bool
	exportData     bool
	dpi            int
	hideDimensions bool
	hideLabels     bool
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <image>",
	Short: "Run the floor plan processing tool on a local image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts, err := enhanceOptions()
		if err != nil {
			return err
		}

		res, err := bootstrap.NewEnhancer(cfg.Enhance).RunFile(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		out := enhanceFlags.out
		if err := os.WriteFile(out, res.Image, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		summary := map[string]any{"image": out, "bytes": len(res.Image)}
		if len(res.View3D) > 0 {
			p := enhance.View3DPath(out)
			if err := os.WriteFile(p, res.View3D, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", p, err)
			}
			summary["view3d"] = p
		}
		if res.Data != nil {
			summary["data"] = res.Data
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

func enhanceOptions() (enhance.Options, error) {
	scheme, err := enhance.ParseColorScheme(enhanceFlags.scheme)
	if err != nil {
		return enhance.Options{}, err
	}
	caps := enhance.EnhanceOnly
	if enhanceFlags.render3D {
		caps |= enhance.Render3D
	}
	if enhanceFlags.exportData {
		caps |= enhance.ExportData
	}
	return enhance.Options{
		Scheme:         scheme,
		Capabilities:   caps,
		DPI:            enhanceFlags.dpi,
		HideDimensions: enhanceFlags.hideDimensions,
		HideLabels:     enhanceFlags.hideLabels,
	}, nil
}

func init() {
	f := enhanceCmd.Flags()
	f.StringVarP(&enhanceFlags.out, "out", "o", "enhanced.png", "output image path")
	f.StringVar(&enhanceFlags.scheme, "scheme", "default", "color scheme")
	f.BoolVar(&enhanceFlags.render3D, "3d", false, "also render a 3D view")
	f.BoolVar(&enhanceFlags.exportData, "data", false, "export room data as JSON")
	f.IntVar(&enhanceFlags.dpi, "dpi", 0, "output DPI (0 uses ENHANCE_DPI)")
	f.BoolVar(&enhanceFlags.hideDimensions, "hide-dimensions", false, "omit dimension annotations")
	f.BoolVar(&enhanceFlags.hideLabels, "hide-labels", false, "omit room labels")
	rootCmd.AddCommand(enhanceCmd)
}
