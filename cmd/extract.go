package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	extractRegion  string
	extractRefresh bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract green space features from configured OSM extracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		regions, err := selectRegions(extractRegion)
		if err != nil {
			return err
		}

		results := extractRegions(ctx, env, regions, extractRefresh)

		var failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
				zap.L().Error("region extraction failed",
					zap.String("region", res.Region.Name),
					zap.Error(res.Err),
				)
				continue
			}
			zap.L().Info("region extracted",
				zap.String("region", res.Region.Name),
				zap.Int("spaces", res.Summary.SpaceCount),
				zap.Float64("green_area_km2", res.Summary.GreenAreaKm2),
				zap.Float64("green_fraction", res.Summary.GreenFraction),
			)
		}

		if failed == len(results) {
			return eris.New("all regions failed")
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractRegion, "region", "", "process a single region by name")
	extractCmd.Flags().BoolVar(&extractRefresh, "refresh", false, "ignore cached extractions and rescan the pbf")
	rootCmd.AddCommand(extractCmd)
}
