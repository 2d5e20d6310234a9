// Package config loads application configuration from file and environment
// and owns global logger setup.
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
	EPA     EPAConfig     `yaml:"epa" mapstructure:"epa"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Summary SummaryConfig `yaml:"summary" mapstructure:"summary"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// EPAConfig configures the Envirofacts client.
type EPAConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`

	// Per-table circuit breaker: consecutive failures before the table's
	// circuit opens, and how long it stays open before a probe.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-attempt request timeout.
func (c EPAConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// GeocodeConfig configures the Nominatim resolver.
type GeocodeConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	MinIntervalMs int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
}

// MinInterval returns the minimum spacing between geocoder requests.
func (c GeocodeConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// SummaryConfig configures the aggregation defaults.
type SummaryConfig struct {
	DefaultRadiusMiles float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
	TopFacilities      int     `yaml:"top_facilities" mapstructure:"top_facilities"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("ENVIROFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("epa.base_url", "https://data.epa.gov/efservice/")
	v.SetDefault("epa.user_agent", "envirofacts-cli/1.0")
	v.SetDefault("epa.timeout_secs", 300)
	v.SetDefault("epa.max_retries", 3)
	v.SetDefault("epa.max_results", 1000)
	v.SetDefault("epa.breaker_threshold", 5)
	v.SetDefault("epa.breaker_reset_secs", 30)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "envirofacts-cli/1.0")
	v.SetDefault("geocode.min_interval_ms", 1000)
	v.SetDefault("summary.default_radius_miles", 5.0)
	v.SetDefault("summary.top_facilities", 10)
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

// Validate checks configuration bounds after loading.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.EPA.TimeoutSecs <= 0 {
		problems = append(problems, "epa.timeout_secs must be > 0")
	}
	if c.EPA.MaxRetries < 1 || c.EPA.MaxRetries > 10 {
		problems = append(problems, "epa.max_retries must be between 1 and 10")
	}
	if c.EPA.MaxResults < 1 || c.EPA.MaxResults > 10000 {
		problems = append(problems, "epa.max_results must be between 1 and 10000")
	}
	if c.EPA.BreakerThreshold < 1 || c.EPA.BreakerThreshold > 100 {
		problems = append(problems, "epa.breaker_threshold must be between 1 and 100")
	}
	if c.EPA.BreakerResetSecs < 1 {
		problems = append(problems, "epa.breaker_reset_secs must be > 0")
	}
	if c.Summary.DefaultRadiusMiles <= 0 || c.Summary.DefaultRadiusMiles > 100 {
		problems = append(problems, "summary.default_radius_miles must be within (0, 100]")
	}
	if c.Summary.TopFacilities < 1 || c.Summary.TopFacilities > 100 {
		problems = append(problems, "summary.top_facilities must be between 1 and 100")
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
