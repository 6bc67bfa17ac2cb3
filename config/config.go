package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Rating        RatingConfig        `yaml:"rating"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the read API listener and its per-IP rate limit.
type HTTPConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables limiting
	RateBurst int     `yaml:"rate_burst"`
}

// RatingConfig holds rating engine settings.
type RatingConfig struct {
	AuditInterval      time.Duration `yaml:"audit_interval"` // 0 disables the periodic ledger audit
	SerializableWrites bool          `yaml:"serializable_writes"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsNamespace string `yaml:"metrics_namespace"`
	Environment      string `yaml:"environment"`
	LogLevel         string `yaml:"log_level"`
}

// Defaults applied before the file and environment are read.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultMetricsNamespace = "mahjong"
	DefaultAuditInterval    = time.Hour
	DefaultRateLimit        = 20
	DefaultRateBurst        = 40
)

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:      DefaultHTTPAddr,
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		Rating: RatingConfig{
			AuditInterval: DefaultAuditInterval,
		},
		Observability: ObservabilityConfig{
			MetricsNamespace: DefaultMetricsNamespace,
			Environment:      "development",
			LogLevel:         "info",
		},
	}
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file falls back to the environment alone.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := defaults()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("METRICS_NAMESPACE"); v != "" {
		cfg.Observability.MetricsNamespace = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("RATING_AUDIT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATING_AUDIT_INTERVAL value: %w", err)
		}
		cfg.Rating.AuditInterval = d
	}
	if v := os.Getenv("RATING_SERIALIZABLE_WRITES"); v != "" {
		cfg.Rating.SerializableWrites = v == "true"
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("HTTP_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_BURST value: %w", err)
		}
		cfg.HTTP.RateBurst = n
	}
	return nil
}
