package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verdantlabs/greenspace-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered maps and the green space API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Load region data once at startup, like the extract command would;
		// cached extractions make this cheap on re-serve.
		results := extractRegions(ctx, env, cfg.Regions, false)

		var datasets []*server.RegionData
		for _, res := range results {
			if res.Err != nil {
				zap.L().Error("region unavailable",
					zap.String("region", res.Region.Name),
					zap.Error(res.Err),
				)
				continue
			}
			datasets = append(datasets, &server.RegionData{
				Summary: res.Summary,
				Spaces:  res.Spaces,
			})
		}
		if len(datasets) == 0 {
			return eris.New("no region data available to serve")
		}

		tileCache := server.NewTileCache(cfg.Server.TileCacheSize, 1*time.Hour)
		proxy := server.NewTileProxy(cfg.Server.BasemapUpstream, cfg.Server.BasemapRPS, tileCache)
		srv := server.New(cfg.Render.OutputDir, datasets, proxy)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)

		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.String("addr", addr),
			zap.Int("regions", len(datasets)),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
