package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verdantlabs/greenspace-cli/internal/boundary"
	"github.com/verdantlabs/greenspace-cli/internal/cache"
	"github.com/verdantlabs/greenspace-cli/internal/config"
	"github.com/verdantlabs/greenspace-cli/internal/extract"
	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
	"github.com/verdantlabs/greenspace-cli/internal/store"
)

// boundaryTolerance is the allowed relative disagreement between the
// configured region area and a measured boundary area.
const boundaryTolerance = 0.05

// pipelineEnv holds the store, cache, and extractor shared by the extract,
// render, run, and serve commands.
type pipelineEnv struct {
	Store     store.Store
	Cache     *cache.Cache // nil when caching is disabled
	Extractor *extract.Extractor
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the run store and extraction cache. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	env := &pipelineEnv{
		Store:     st,
		Extractor: extract.New(cfg.Extract.DecoderThreads),
	}

	if !cfg.Cache.Disabled {
		c, err := cache.New(cfg.Cache.Dir)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		env.Cache = c
	}

	return env, nil
}

// toRegion converts a configured region to the domain type.
func toRegion(rc config.RegionConfig) greenspace.Region {
	return greenspace.Region{
		SourceFile:   rc.PBFFile,
		Name:         rc.Name,
		Population:   rc.Population,
		TotalAreaKm2: rc.TotalAreaKm2,
	}
}

// selectRegions returns the configured regions to process, narrowed to one
// when name is non-empty.
func selectRegions(name string) ([]config.RegionConfig, error) {
	if name == "" {
		return cfg.Regions, nil
	}
	rc, ok := cfg.Region(name)
	if !ok {
		return nil, eris.Errorf("region not configured: %s", name)
	}
	return []config.RegionConfig{rc}, nil
}

// regionResult is the outcome of processing one region. A failed region
// carries its error and never aborts the others.
type regionResult struct {
	Config  config.RegionConfig
	Region  greenspace.Region
	Spaces  []*greenspace.GreenSpace
	Summary greenspace.RegionSummary
	Err     error
}

// extractRegions obtains features and a summary for each region, from cache
// when allowed, otherwise by scanning the pbf. Regions run under the
// configured parallelism; failures are recorded per region.
func extractRegions(ctx context.Context, env *pipelineEnv, regions []config.RegionConfig, refresh bool) []regionResult {
	results := make([]regionResult, len(regions))

	g, ctx := errgroup.WithContext(ctx)
	parallelism := cfg.Extract.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	g.SetLimit(parallelism)

	for i, rc := range regions {
		i, rc := i, rc
		g.Go(func() error {
			results[i] = processRegion(ctx, env, rc, refresh)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// processRegion runs the extract-or-load path for one region and derives
// its summary.
func processRegion(ctx context.Context, env *pipelineEnv, rc config.RegionConfig, refresh bool) regionResult {
	region := toRegion(rc)
	res := regionResult{Config: rc, Region: region}
	log := zap.L().With(zap.String("region", region.Name))

	spaces, fromCache := loadFromCache(env, region, refresh)
	if fromCache {
		res.Spaces = spaces
		res.Summary = greenspace.Summarize(region, spaces)
		checkFigures(rc, res.Summary, log)
		return res
	}

	run, err := env.Store.CreateExtraction(ctx, region)
	if err != nil {
		res.Err = err
		return res
	}

	spaces, err = env.Extractor.Extract(ctx, region)
	if err != nil {
		if storeErr := env.Store.FailExtraction(ctx, run.ID, err); storeErr != nil {
			log.Warn("record extraction failure", zap.Error(storeErr))
		}
		res.Err = err
		return res
	}

	res.Spaces = spaces
	res.Summary = greenspace.Summarize(region, spaces)

	if err := env.Store.CompleteExtraction(ctx, run.ID, &res.Summary); err != nil {
		log.Warn("record extraction result", zap.Error(err))
	}
	if env.Cache != nil {
		if err := env.Cache.Save(region, spaces); err != nil {
			log.Warn("caching failed", zap.Error(err))
		}
	}

	checkFigures(rc, res.Summary, log)
	return res
}

// loadFromCache tries the extraction cache. A corrupt cache logs a warning
// and falls through to fresh extraction.
func loadFromCache(env *pipelineEnv, region greenspace.Region, refresh bool) ([]*greenspace.GreenSpace, bool) {
	if env.Cache == nil || refresh || !env.Cache.Exists(region.SourceFile) {
		return nil, false
	}

	spaces, meta, err := env.Cache.Load(region.SourceFile)
	if err != nil {
		zap.L().Warn("cache load failed, extracting fresh",
			zap.String("region", region.Name),
			zap.Error(err),
		)
		return nil, false
	}

	zap.L().Info("loaded extraction from cache",
		zap.String("region", region.Name),
		zap.Int("spaces", len(spaces)),
		zap.Time("exported_at", meta.ExportedAt),
	)
	return spaces, true
}

// checkFigures warns about implausible configured figures: green area above
// the configured total, and a configured total that disagrees with the
// measured boundary.
func checkFigures(rc config.RegionConfig, summary greenspace.RegionSummary, log *zap.Logger) {
	if summary.Region.TotalAreaKm2 > 0 && summary.GreenAreaKm2 > summary.Region.TotalAreaKm2 {
		log.Warn("green area exceeds configured region area",
			zap.Float64("green_area_km2", summary.GreenAreaKm2),
			zap.Float64("total_area_km2", summary.Region.TotalAreaKm2),
		)
	}

	if rc.BoundaryShp == "" {
		return
	}
	measured, err := boundary.MeasuredAreaKm2(rc.BoundaryShp)
	if err != nil {
		log.Warn("boundary area check failed", zap.Error(err))
		return
	}
	if !boundary.Check(rc.TotalAreaKm2, measured, boundaryTolerance) {
		log.Warn("configured area disagrees with boundary shapefile",
			zap.Float64("configured_km2", rc.TotalAreaKm2),
			zap.Float64("measured_km2", measured),
		)
	}
}
