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
	Forecast ForecastConfig `yaml:"forecast" mapstructure:"forecast"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ForecastConfig holds every tunable of the reconciliation pipeline.
// These replace the path and year constants the analysis scripts used to
// hard-code at module level.
type ForecastConfig struct {
	BaseYear         int     `yaml:"base_year" mapstructure:"base_year"`
	EndYear          int     `yaml:"end_year" mapstructure:"end_year"`
	SnapshotYear     int     `yaml:"snapshot_year" mapstructure:"snapshot_year"`
	TolerancePct     float64 `yaml:"tolerance_pct" mapstructure:"tolerance_pct"`
	ShareTolerance   float64 `yaml:"share_tolerance" mapstructure:"share_tolerance"`
	NAICSDigits      int     `yaml:"naics_digits" mapstructure:"naics_digits"`
	TotalSegmentName string  `yaml:"total_segment_name" mapstructure:"total_segment_name"`
	TotalStageName   string  `yaml:"total_stage_name" mapstructure:"total_stage_name"`
	Workers          int     `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures where and how results are written.
type OutputConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
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
	v.SetEnvPrefix("FORECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("forecast.base_year", 2024)
	v.SetDefault("forecast.end_year", 2034)
	v.SetDefault("forecast.snapshot_year", 2030)
	v.SetDefault("forecast.tolerance_pct", 5.0)
	v.SetDefault("forecast.share_tolerance", 1e-9)
	v.SetDefault("forecast.naics_digits", 4)
	v.SetDefault("forecast.total_segment_name", "Total (All Segments)")
	v.SetDefault("forecast.total_stage_name", "Total")
	v.SetDefault("forecast.workers", 4)
	v.SetDefault("output.dir", "data/processed")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if cfg.Forecast.EndYear <= cfg.Forecast.BaseYear {
		return nil, eris.Errorf("config: end_year %d must be after base_year %d", cfg.Forecast.EndYear, cfg.Forecast.BaseYear)
	}

	return &cfg, nil
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
