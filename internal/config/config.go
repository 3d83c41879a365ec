package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Regions []RegionConfig `yaml:"regions" mapstructure:"regions"`
	Cache   CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Store   StoreConfig    `yaml:"store" mapstructure:"store"`
	Extract ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Render  RenderConfig   `yaml:"render" mapstructure:"render"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
	Log     LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegionConfig describes one region to process: the OSM extract that covers
// it plus the operator-supplied population and land area figures.
type RegionConfig struct {
	PBFFile      string  `yaml:"pbf_file" mapstructure:"pbf_file"`
	Name         string  `yaml:"name" mapstructure:"name"`
	Population   int64   `yaml:"population" mapstructure:"population"`
	TotalAreaKm2 float64 `yaml:"total_area_km2" mapstructure:"total_area_km2"`
	BoundaryShp  string  `yaml:"boundary_shp" mapstructure:"boundary_shp"`
}

// CacheConfig configures the extraction cache.
type CacheConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Disabled bool   `yaml:"disabled" mapstructure:"disabled"`
}

// StoreConfig configures the run store database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExtractConfig configures extraction behavior.
type ExtractConfig struct {
	Parallelism    int `yaml:"parallelism" mapstructure:"parallelism"`
	DecoderThreads int `yaml:"decoder_threads" mapstructure:"decoder_threads"`
}

// RenderConfig configures map artifact generation.
type RenderConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Host            string  `yaml:"host" mapstructure:"host"`
	Port            int     `yaml:"port" mapstructure:"port"`
	BasemapUpstream string  `yaml:"basemap_upstream" mapstructure:"basemap_upstream"`
	BasemapRPS      float64 `yaml:"basemap_rps" mapstructure:"basemap_rps"`
	TileCacheSize   int     `yaml:"tile_cache_size" mapstructure:"tile_cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GREENSPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.dir", "green_space_cache")
	v.SetDefault("store.path", "greenspace.db")
	v.SetDefault("extract.parallelism", 1)
	v.SetDefault("extract.decoder_threads", 4)
	v.SetDefault("render.output_dir", "maps")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.basemap_upstream", "https://tile.openstreetmap.org")
	v.SetDefault("server.basemap_rps", 2.0)
	v.SetDefault("server.tile_cache_size", 2000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Region returns the configured region with the given name, matched
// case-insensitively.
func (c *Config) Region(name string) (RegionConfig, bool) {
	for _, r := range c.Regions {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return RegionConfig{}, false
}

// Validate checks that the configuration can drive an extraction run.
func (c *Config) Validate() error {
	if len(c.Regions) == 0 {
		return eris.New("config: no regions configured")
	}
	for _, r := range c.Regions {
		if r.Name == "" {
			return eris.New("config: region with empty name")
		}
		if r.PBFFile == "" {
			return eris.Errorf("config: region %s has no pbf_file", r.Name)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
