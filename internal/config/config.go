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
	Data     DataConfig             `yaml:"data" mapstructure:"data"`
	Layers   map[string]LayerConfig `yaml:"layers" mapstructure:"layers"`
	Analysis AnalysisConfig         `yaml:"analysis" mapstructure:"analysis"`
	History  HistoryConfig          `yaml:"history" mapstructure:"history"`
	Log      LogConfig              `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the per-provider raw data and the output directories.
type DataConfig struct {
	SnappRawDir   string `yaml:"snapp_raw_dir" mapstructure:"snapp_raw_dir"`
	TapsiRawDir   string `yaml:"tapsi_raw_dir" mapstructure:"tapsi_raw_dir"`
	AggregatedDir string `yaml:"aggregated_dir" mapstructure:"aggregated_dir"`
	GISOutputDir  string `yaml:"gis_output_dir" mapstructure:"gis_output_dir"`
	SeasonsFile   string `yaml:"seasons_file" mapstructure:"seasons_file"`
}

// LayerConfig resolves a logical boundary-layer name to its shapefile and
// default join attribute.
type LayerConfig struct {
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
	JoinField string `yaml:"join_field" mapstructure:"join_field"`
}

// AnalysisConfig holds the default analysis parameters.
type AnalysisConfig struct {
	GridSizeMeters float64 `yaml:"grid_size_meters" mapstructure:"grid_size_meters"`
	TimeBinMinutes int     `yaml:"time_bin_minutes" mapstructure:"time_bin_minutes"`
	FixedDate      string  `yaml:"fixed_date" mapstructure:"fixed_date"`
	CRS            string  `yaml:"crs" mapstructure:"crs"`
	ChunkSize      int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	JoinBatchSize  int     `yaml:"join_batch_size" mapstructure:"join_batch_size"`
	MaxPoints      int     `yaml:"max_points" mapstructure:"max_points"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
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
	v.SetEnvPrefix("TRIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.snapp_raw_dir", "dataset/raw/snapp")
	v.SetDefault("data.tapsi_raw_dir", "dataset/raw/tapsi")
	v.SetDefault("data.aggregated_dir", "dataset/aggregated")
	v.SetDefault("data.gis_output_dir", "gis/output")
	v.SetDefault("data.seasons_file", "")
	v.SetDefault("analysis.grid_size_meters", 100.0)
	v.SetDefault("analysis.time_bin_minutes", 30)
	v.SetDefault("analysis.fixed_date", "2025-01-01")
	v.SetDefault("analysis.crs", "EPSG:4326")
	v.SetDefault("analysis.chunk_size", 500000)
	v.SetDefault("analysis.join_batch_size", 500000)
	v.SetDefault("analysis.max_points", 50000000)
	v.SetDefault("history.database_path", "trips-cli.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("layers.neighborhoods.shapefile", "gis/layers/neighborhoods/neighborhoods.shp")
	v.SetDefault("layers.neighborhoods.join_field", "CODE")
	v.SetDefault("layers.districts.shapefile", "gis/layers/districts/districts.shp")
	v.SetDefault("layers.districts.join_field", "DISTRICT")
	v.SetDefault("layers.subregions.shapefile", "gis/layers/subregions/subregions.shp")
	v.SetDefault("layers.subregions.join_field", "SUBREGION")
	v.SetDefault("layers.traffic_zones.shapefile", "gis/layers/traffic_zones/traffic_zones.shp")
	v.SetDefault("layers.traffic_zones.join_field", "ZoneNumber")

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

// Layer resolves a logical boundary-layer name. Unknown names are a
// configuration error, reported before any data is touched.
func (c *Config) Layer(name string) (LayerConfig, error) {
	lc, ok := c.Layers[name]
	if !ok {
		return LayerConfig{}, eris.Errorf("config: unknown boundary layer %q", name)
	}
	if lc.Shapefile == "" {
		return LayerConfig{}, eris.Errorf("config: boundary layer %q has no shapefile path", name)
	}
	return lc, nil
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
