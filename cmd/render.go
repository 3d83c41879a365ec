package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
	"github.com/verdantlabs/greenspace-cli/internal/render"
)

var renderRegion string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render interactive map artifacts from extracted data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		regions, err := selectRegions(renderRegion)
		if err != nil {
			return err
		}

		results := extractRegions(ctx, env, regions, false)
		return renderResults(ctx, results)
	},
}

// renderResults writes one artifact per successful region plus the index.
func renderResults(_ context.Context, results []regionResult) error {
	r, err := render.New(cfg.Render.OutputDir)
	if err != nil {
		return err
	}

	var summaries []greenspace.RegionSummary
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			zap.L().Error("skipping region with failed extraction",
				zap.String("region", res.Region.Name),
				zap.Error(res.Err),
			)
			continue
		}

		path, err := r.RenderRegion(res.Summary, res.Spaces)
		if err != nil {
			failed++
			zap.L().Error("render failed",
				zap.String("region", res.Region.Name),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("map ready", zap.String("region", res.Region.Name), zap.String("path", path))
		summaries = append(summaries, res.Summary)
	}

	if len(summaries) > 0 {
		if _, err := r.RenderIndex(summaries); err != nil {
			return err
		}
	}

	if failed == len(results) {
		return eris.New("all regions failed")
	}
	return nil
}

func init() {
	renderCmd.Flags().StringVar(&renderRegion, "region", "", "render a single region by name")
	rootCmd.AddCommand(renderCmd)
}
