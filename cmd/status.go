package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdantlabs/greenspace-cli/internal/store"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent extraction runs and latest region summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListExtractions(ctx, store.ExtractionFilter{Limit: statusLimit})
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("no extraction runs recorded")
		} else {
			fmt.Println("Recent runs:")
			fmt.Printf("  %-20s %-10s %-20s %s\n", "REGION", "STATUS", "STARTED", "DETAIL")
			for _, run := range runs {
				detail := ""
				switch {
				case run.Status == store.StatusFailed:
					detail = run.Error
				case run.Summary != nil:
					detail = fmt.Sprintf("%d spaces, %.1f km² green",
						run.Summary.SpaceCount, run.Summary.GreenAreaKm2)
				}
				fmt.Printf("  %-20s %-10s %-20s %s\n",
					run.Region, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"), detail)
			}
		}

		if len(cfg.Regions) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Latest per region:")
		for _, rc := range cfg.Regions {
			summary, err := st.LatestSummary(ctx, rc.Name)
			if err != nil {
				return err
			}
			if summary == nil {
				fmt.Printf("  %-20s never extracted\n", rc.Name)
				continue
			}
			fmt.Printf("  %-20s %d spaces, %.1f km² green (%.1f%% of region)\n",
				rc.Name, summary.SpaceCount, summary.GreenAreaKm2, summary.GreenFraction*100)
		}

		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}
