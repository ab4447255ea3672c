package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds the upstream API credential and endpoints.
type GoogleConfig struct {
	APIKey         string  `yaml:"api_key" mapstructure:"api_key"`
	PlacesBaseURL  string  `yaml:"places_base_url" mapstructure:"places_base_url"`
	GeocodeBaseURL string  `yaml:"geocode_base_url" mapstructure:"geocode_base_url"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SearchConfig holds the search pipeline tunables.
type SearchConfig struct {
	// StandardThreshold is the result budget at or below which a single
	// standard search is used instead of the grid pipeline.
	StandardThreshold int `yaml:"standard_threshold" mapstructure:"standard_threshold"`

	// DefaultMaxResults applies when a request omits maxResults.
	DefaultMaxResults int `yaml:"default_max_results" mapstructure:"default_max_results"`

	// MaxPages bounds pagination depth per tile (and for standard search).
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`

	// PageDelay is the wait before following a next-page token; tokens are
	// not valid immediately after being issued.
	PageDelay time.Duration `yaml:"page_delay" mapstructure:"page_delay"`

	// BatchSize is the number of tiles searched concurrently per batch.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	// BatchDelay is the pause between tile batches.
	BatchDelay time.Duration `yaml:"batch_delay" mapstructure:"batch_delay"`

	// RetryAttempts is the number of retries after a transient search
	// failure; backoff doubles from RetryBackoff each time.
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// AutoScaleSpanDeg is the bounding-box span (degrees) above which the
	// grid density is bumped by one, capped at MaxGridDensity.
	AutoScaleSpanDeg float64 `yaml:"autoscale_span_deg" mapstructure:"autoscale_span_deg"`
	MaxGridDensity   int     `yaml:"max_grid_density" mapstructure:"max_grid_density"`

	// DefaultRadiusDeg sizes the synthesized bounding box when geocoding
	// returns a point without bounds (degrees in each direction).
	DefaultRadiusDeg float64 `yaml:"default_radius_deg" mapstructure:"default_radius_deg"`

	// CountryQualifier is appended to the location phrase as a geocoding
	// fallback variant.
	CountryQualifier string `yaml:"country_qualifier" mapstructure:"country_qualifier"`

	// DetailConcurrency bounds concurrent detail-enrichment lookups.
	DetailConcurrency int `yaml:"detail_concurrency" mapstructure:"detail_concurrency"`
}

// HistoryConfig configures the search-run history store.
type HistoryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("PLACEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("google.places_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.geocode_base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("search.standard_threshold", 60)
	v.SetDefault("search.default_max_results", 60)
	v.SetDefault("search.max_pages", 3)
	v.SetDefault("search.page_delay", "2200ms")
	v.SetDefault("search.batch_size", 4)
	v.SetDefault("search.batch_delay", "300ms")
	v.SetDefault("search.retry_attempts", 3)
	v.SetDefault("search.retry_backoff", "1s")
	v.SetDefault("search.autoscale_span_deg", 0.5)
	v.SetDefault("search.max_grid_density", 6)
	v.SetDefault("search.default_radius_deg", 0.25)
	v.SetDefault("search.country_qualifier", "USA")
	v.SetDefault("search.detail_concurrency", 5)
	v.SetDefault("history.path", "placefinder.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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
