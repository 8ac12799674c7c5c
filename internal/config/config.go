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
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Scan   ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Maps platform credentials and endpoints.
type GoogleConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	PlacesBaseURL  string  `yaml:"places_base_url" mapstructure:"places_base_url"`
	GeocodeBaseURL string  `yaml:"geocode_base_url" mapstructure:"geocode_base_url"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ScanConfig holds grid-scan defaults; each is overridable per command.
type ScanConfig struct {
	GridSize      int     `yaml:"grid_size" mapstructure:"grid_size"`
	RadiusMiles   float64 `yaml:"radius_miles" mapstructure:"radius_miles"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxPages      int     `yaml:"max_pages" mapstructure:"max_pages"`
	PageDelaySecs int     `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
}

// StoreConfig configures the scan-run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the scan API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	if c.Google.Key == "" {
		return eris.New("config: google.key is required (RANKGRID_GOOGLE_KEY)")
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RANKGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default still need registering
	// so AutomaticEnv can populate them through Unmarshal.
	v.SetDefault("google.key", "")
	v.SetDefault("google.places_base_url", "")
	v.SetDefault("google.geocode_base_url", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("scan.grid_size", 5)
	v.SetDefault("scan.radius_miles", 1.0)
	v.SetDefault("scan.concurrency", 5)
	v.SetDefault("scan.max_pages", 3)
	v.SetDefault("scan.page_delay_secs", 2)
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
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
