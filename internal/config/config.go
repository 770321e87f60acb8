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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend for presets and snapshots.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DatasetConfig locates the scored GeoJSON dataset.
type DatasetConfig struct {
	// Source is a file path or an http(s) URL.
	Source      string  `yaml:"source" mapstructure:"source"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Simplify    float64 `yaml:"simplify" mapstructure:"simplify"`
	DBFCharset  string  `yaml:"dbf_charset" mapstructure:"dbf_charset"`
}

// ScoringConfig configures the blend weights and choropleth defaults.
type ScoringConfig struct {
	Weights       WeightsConfig `yaml:"weights" mapstructure:"weights"`
	Property      string        `yaml:"property" mapstructure:"property"`
	TopN          int           `yaml:"top_n" mapstructure:"top_n"`
	RescoreOnLoad bool          `yaml:"rescore_on_load" mapstructure:"rescore_on_load"`
	PresetsFile   string        `yaml:"presets_file" mapstructure:"presets_file"`
}

// WeightsConfig holds the default slider positions. Values are relative; they
// are normalized before use.
type WeightsConfig struct {
	Safety  float64 `yaml:"safety" mapstructure:"safety"`
	Parks   float64 `yaml:"parks" mapstructure:"parks"`
	Transit float64 `yaml:"transit" mapstructure:"transit"`
	Parking float64 `yaml:"parking" mapstructure:"parking"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// CacheConfig configures the rendered-response cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
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
	v.SetEnvPrefix("LIVABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "livability.db")
	v.SetDefault("dataset.source", "data/processed/fsa_with_parking_score.geojson")
	v.SetDefault("dataset.timeout_secs", 30)
	v.SetDefault("dataset.simplify", 0.0)
	v.SetDefault("dataset.dbf_charset", "windows-1252")
	v.SetDefault("scoring.weights.safety", 35)
	v.SetDefault("scoring.weights.parks", 30)
	v.SetDefault("scoring.weights.transit", 25)
	v.SetDefault("scoring.weights.parking", 10)
	v.SetDefault("scoring.property", "final_score")
	v.SetDefault("scoring.top_n", 10)
	v.SetDefault("scoring.rescore_on_load", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("cache.max_entries", 64)
	v.SetDefault("cache.ttl_secs", 300)
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

// Validate checks the settings a command needs before it runs.
// Mode is one of "serve", "score", "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Cache.MaxEntries < 0 {
			errs = append(errs, "cache.max_entries must be >= 0")
		}
		errs = append(errs, c.scoringErrors()...)
		errs = append(errs, c.storeErrors()...)
	case "score":
		errs = append(errs, c.scoringErrors()...)
	case "store":
		errs = append(errs, c.storeErrors()...)
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) scoringErrors() []string {
	var errs []string
	if c.Dataset.Source == "" {
		errs = append(errs, "dataset.source is required")
	}
	w := c.Scoring.Weights
	if w.Safety < 0 || w.Parks < 0 || w.Transit < 0 || w.Parking < 0 {
		errs = append(errs, "scoring.weights must be >= 0")
	}
	if c.Scoring.TopN < 0 {
		errs = append(errs, "scoring.top_n must be >= 0")
	}
	return errs
}

func (c *Config) storeErrors() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return []string{fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)}
	}
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
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
