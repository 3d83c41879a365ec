package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verdantlabs/greenspace-cli/internal/cache"
	"github.com/verdantlabs/greenspace-cli/internal/config"
	"github.com/verdantlabs/greenspace-cli/internal/store"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List configured regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(cfg.Regions) == 0 {
			fmt.Println("no regions configured (run 'greenspace regions init' for a starter config)")
			return nil
		}

		var c *cache.Cache
		if !cfg.Cache.Disabled {
			var err error
			c, err = cache.New(cfg.Cache.Dir)
			if err != nil {
				return err
			}
		}

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		fmt.Printf("%-20s %12s %14s %-8s %-14s %s\n",
			"NAME", "POPULATION", "AREA (km²)", "CACHED", "LAST RUN", "PBF")
		for _, rc := range cfg.Regions {
			cached := "no"
			if c != nil && c.Exists(rc.PBFFile) {
				cached = "yes"
			}

			lastRun := "never"
			summary, err := st.LatestSummary(ctx, rc.Name)
			if err != nil {
				return err
			}
			if summary != nil {
				lastRun = fmt.Sprintf("%d spaces", summary.SpaceCount)
			}

			fmt.Printf("%-20s %12d %14.1f %-8s %-14s %s\n",
				rc.Name, rc.Population, rc.TotalAreaKm2, cached, lastRun, rc.PBFFile)
		}
		return nil
	},
}

var (
	regionsInitOutput string
	regionsInitForce  bool
)

var regionsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(regionsInitOutput); err == nil && !regionsInitForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", regionsInitOutput)
		}

		starter := config.Config{
			Regions: []config.RegionConfig{
				{
					PBFFile:      "west-midlands-latest.osm.pbf",
					Name:         "West Midlands",
					Population:   5950757,
					TotalAreaKm2: 13004,
				},
				{
					PBFFile:      "staffordshire-latest.osm.pbf",
					Name:         "Staffordshire",
					Population:   1177578,
					TotalAreaKm2: 2714,
				},
			},
			Cache:   config.CacheConfig{Dir: "green_space_cache"},
			Store:   config.StoreConfig{Path: "greenspace.db"},
			Extract: config.ExtractConfig{Parallelism: 1, DecoderThreads: 4},
			Render:  config.RenderConfig{OutputDir: "maps"},
			Server: config.ServerConfig{
				Host:            "localhost",
				Port:            5000,
				BasemapUpstream: "https://tile.openstreetmap.org",
				BasemapRPS:      2.0,
				TileCacheSize:   2000,
			},
			Log: config.LogConfig{Level: "info", Format: "console"},
		}

		data, err := yaml.Marshal(&starter)
		if err != nil {
			return eris.Wrap(err, "marshal starter config")
		}
		if err := os.WriteFile(regionsInitOutput, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", regionsInitOutput)
		}

		fmt.Printf("wrote %s: edit the regions list, then run 'greenspace run'\n", regionsInitOutput)
		return nil
	},
}

func init() {
	regionsInitCmd.Flags().StringVar(&regionsInitOutput, "output", "config.yaml", "config file path")
	regionsInitCmd.Flags().BoolVar(&regionsInitForce, "force", false, "overwrite an existing file")
	regionsCmd.AddCommand(regionsInitCmd)
	rootCmd.AddCommand(regionsCmd)
}
