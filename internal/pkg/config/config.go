package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Google     GoogleConfig     `mapstructure:"google"`
	Overpass   OverpassConfig   `mapstructure:"overpass"`
	Weather    WeatherConfig    `mapstructure:"weather"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type GoogleConfig struct {
	APIKey        string `mapstructure:"api_key"`
	DirectionsURL string `mapstructure:"directions_url"`
	ElevationURL  string `mapstructure:"elevation_url"`
}

type OverpassConfig struct {
	URL string `mapstructure:"url"`
}

type WeatherConfig struct {
	APIKey      string `mapstructure:"api_key"`
	ForecastURL string `mapstructure:"forecast_url"`
}

// ClassifierConfig tunes how the road classifier samples, caches, and retries.
type ClassifierConfig struct {
	MaxSamplePoints  int `mapstructure:"max_sample_points"`
	CoarseStride     int `mapstructure:"coarse_stride"`
	Workers          int `mapstructure:"workers"`
	CacheGridScale   int `mapstructure:"cache_grid_scale"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts"`
	RetryInitialMs   int `mapstructure:"retry_initial_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type TelemetryConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	CollectorAddr string `mapstructure:"collector_addr"`
	Enabled       bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("google.directions_url", "https://maps.googleapis.com/maps/api/directions/json")
	v.SetDefault("google.elevation_url", "https://maps.googleapis.com/maps/api/elevation/json")
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("weather.forecast_url", "https://api.openweathermap.org/data/2.5/forecast")
	v.SetDefault("classifier.max_sample_points", 25)
	v.SetDefault("classifier.coarse_stride", 1)
	v.SetDefault("classifier.workers", 4)
	v.SetDefault("classifier.cache_grid_scale", 1000)
	v.SetDefault("classifier.retry_max_attempts", 3)
	v.SetDefault("classifier.retry_initial_ms", 500)
	v.SetDefault("classifier.retry_max_delay_ms", 4000)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.collector_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TRIPSENSE_GOOGLE_API_KEY → google.api_key
	v.SetEnvPrefix("TRIPSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Google.APIKey == "" {
		errs = append(errs, "google.api_key is required")
	}
	if c.Weather.APIKey == "" {
		errs = append(errs, "weather.api_key is required")
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	if c.Classifier.MaxSamplePoints <= 0 {
		errs = append(errs, "classifier.max_sample_points must be positive")
	}
	if c.Classifier.Workers <= 0 {
		errs = append(errs, "classifier.workers must be positive")
	}
	if c.Classifier.CacheGridScale <= 0 {
		errs = append(errs, "classifier.cache_grid_scale must be positive")
	}
	if c.Classifier.RetryMaxAttempts < 1 {
		errs = append(errs, "classifier.retry_max_attempts must be at least 1")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
