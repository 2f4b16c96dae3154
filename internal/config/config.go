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
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Layers   LayersConfig   `yaml:"layers" mapstructure:"layers"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig configures the composite geocoder and its sources.
type GeocodeConfig struct {
	RequestTimeoutSecs int    `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent"`
	NominatimURL       string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	CensusURL          string `yaml:"census_url" mapstructure:"census_url"`
	ArcGISURL          string `yaml:"arcgis_url" mapstructure:"arcgis_url"`
	CacheTTLHours      int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// FeaturesConfig configures the feature service client.
type FeaturesConfig struct {
	PageSize    int `yaml:"page_size" mapstructure:"page_size"`
	PageDelayMS int `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxFeatures int `yaml:"max_features" mapstructure:"max_features"`
}

// EnrichConfig configures the enrichment engine.
type EnrichConfig struct {
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
	LayerTimeoutSecs int `yaml:"layer_timeout_secs" mapstructure:"layer_timeout_secs"`
}

// LayersConfig points at an optional layer override file.
type LayersConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// StoreConfig configures the local cache database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("GEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "geo-cli.db")
	v.SetDefault("geocode.request_timeout_secs", 4)
	v.SetDefault("geocode.user_agent", "geo-cli (blake@sellsadvisors.com)")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.census_url", "https://geocoding.geo.census.gov")
	v.SetDefault("geocode.arcgis_url", "https://geocode.arcgis.com")
	v.SetDefault("geocode.cache_ttl_hours", 24)
	v.SetDefault("features.page_size", 1000)
	v.SetDefault("features.page_delay_ms", 100)
	v.SetDefault("features.timeout_secs", 30)
	v.SetDefault("features.max_features", 100000)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.layer_timeout_secs", 30)

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

// Validate checks bounds on the loaded configuration.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > 50 {
		problems = append(problems, "enrich.concurrency must be between 1 and 50")
	}
	if c.Features.PageSize < 1 {
		problems = append(problems, "features.page_size must be >= 1")
	}
	if c.Features.PageDelayMS < 0 {
		problems = append(problems, "features.page_delay_ms must be >= 0")
	}
	if c.Geocode.RequestTimeoutSecs < 1 {
		problems = append(problems, "geocode.request_timeout_secs must be >= 1")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
