package main

import (
	"github.com/spf13/cobra"
)

var (
	runRegion  string
	runRefresh bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract and render in one pass",
	Long:  "Runs extraction for the configured regions and renders all map artifacts. The artifact set is complete when the command exits, so a subsequent serve never sees partial output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		regions, err := selectRegions(runRegion)
		if err != nil {
			return err
		}

		results := extractRegions(ctx, env, regions, runRefresh)
		return renderResults(ctx, results)
	},
}

func init() {
	runCmd.Flags().StringVar(&runRegion, "region", "", "process a single region by name")
	runCmd.Flags().BoolVar(&runRefresh, "refresh", false, "ignore cached extractions and rescan the pbf")
	rootCmd.AddCommand(runCmd)
}
