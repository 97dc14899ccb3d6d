package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server configuration
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Redis configuration
	RedisURL          string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"50"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"5"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`

	// Listing configuration
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`

	// Slug configuration
	SlugSuffixSize int `env:"SLUG_ADDITIONAL_SIZE" envDefault:"6"`

	// Cache configuration
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"1m"`

	// Rate limit configuration
	SignUpRateLimit  int           `env:"SIGNUP_RATE_LIMIT" envDefault:"10"`
	SignUpRateWindow time.Duration `env:"SIGNUP_RATE_WINDOW" envDefault:"1m"`

	// Notification breaker
	NotifyFailureThreshold int           `env:"NOTIFY_FAILURE_THRESHOLD" envDefault:"5"`
	NotifyCooldown         time.Duration `env:"NOTIFY_COOLDOWN" envDefault:"30s"`

	// Monitoring
	EnableMetrics   bool          `env:"ENABLE_METRICS" envDefault:"true"`
	MetricsPort     string        `env:"METRICS_PORT" envDefault:"9090"`
	MetricsInterval time.Duration `env:"METRICS_INTERVAL" envDefault:"30s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.SlugSuffixSize <= 0 {
		return nil, fmt.Errorf("SLUG_ADDITIONAL_SIZE must be positive, got %d", cfg.SlugSuffixSize)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) NotificationsEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}
