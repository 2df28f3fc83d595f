package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig describes where the boundary dataset is read from.
type DatasetConfig struct {
	Driver           string   `yaml:"driver" mapstructure:"driver"`
	Path             string   `yaml:"path" mapstructure:"path"`
	Paths            []string `yaml:"paths" mapstructure:"paths"`
	IDProperty       string   `yaml:"id_property" mapstructure:"id_property"`
	DatabaseURL      string   `yaml:"database_url" mapstructure:"database_url"`
	Table            string   `yaml:"table" mapstructure:"table"`
	IDColumn         string   `yaml:"id_column" mapstructure:"id_column"`
	GeomColumn       string   `yaml:"geom_column" mapstructure:"geom_column"`
	PropertiesColumn string   `yaml:"properties_column" mapstructure:"properties_column"`
	MaxConns         int32    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns         int32    `yaml:"min_conns" mapstructure:"min_conns"`
	TempDir          string   `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// IndexConfig tunes the R-tree.
type IndexConfig struct {
	MinChildren int `yaml:"min_children" mapstructure:"min_children"`
	MaxChildren int `yaml:"max_children" mapstructure:"max_children"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	Warm        bool     `yaml:"warm" mapstructure:"warm"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("BOUNDARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.driver", "auto")
	v.SetDefault("dataset.path", "data/boundaries.geojson")
	v.SetDefault("dataset.paths", []string{})
	v.SetDefault("dataset.id_property", "")
	v.SetDefault("dataset.database_url", "")
	v.SetDefault("dataset.table", "boundaries")
	v.SetDefault("dataset.id_column", "id")
	v.SetDefault("dataset.geom_column", "geom")
	v.SetDefault("dataset.properties_column", "properties")
	v.SetDefault("dataset.max_conns", 4)
	v.SetDefault("dataset.min_conns", 0)
	v.SetDefault("dataset.temp_dir", "/tmp/boundary-lookup")
	v.SetDefault("index.min_children", 25)
	v.SetDefault("index.max_children", 50)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.warm", true)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 0)
	v.SetDefault("server.cors_origins", []string{"*"})
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

// Validate checks the configuration required by the given command mode:
// "serve", "lookup" or "index".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
			errs = append(errs, "server.rate_limit and server.rate_burst must be >= 0")
		}
	case "lookup", "index":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Index.MinChildren < 1 || c.Index.MaxChildren < 2*c.Index.MinChildren {
		errs = append(errs, fmt.Sprintf(
			"index.max_children (%d) must be at least twice index.min_children (%d)",
			c.Index.MaxChildren, c.Index.MinChildren))
	}
	switch strings.ToLower(c.Dataset.Driver) {
	case "", "auto", "geojson", "shapefile":
		if c.Dataset.Path == "" && len(c.Dataset.Paths) == 0 {
			errs = append(errs, "dataset.path is required")
		}
	case "postgres":
		if c.Dataset.DatabaseURL == "" {
			errs = append(errs, "dataset.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Dataset.DatabaseURL == "" && c.Dataset.Path == "" {
			errs = append(errs, "dataset.database_url or dataset.path is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("dataset.driver %q is not supported", c.Dataset.Driver))
	}
	if c.Dataset.MinConns < 0 || (c.Dataset.MaxConns > 0 && c.Dataset.MinConns > c.Dataset.MaxConns) {
		errs = append(errs, "dataset.min_conns must be >= 0 and <= dataset.max_conns")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
