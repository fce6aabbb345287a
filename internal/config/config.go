package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	pkgconfig "github.com/RoBiul-Hasan-Jisan/hudai/pkg/config"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/database"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/httpclient"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/tracing"
)

// Storage drivers.
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all configuration for the cart service.
type Config struct {
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort        int           `env:"CART_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StorageDriver      string                  `env:"STORAGE_DRIVER" envDefault:"redis"`
	CartTTL            time.Duration           `env:"CART_TTL" envDefault:"0s"`
	Redis              database.RedisConfig    `envPrefix:"REDIS_"`
	Postgres           database.PostgresConfig `envPrefix:"POSTGRES_"`
	SlowQueryThreshold time.Duration           `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	SessionCacheSize   int           `env:"SESSION_CACHE_SIZE" envDefault:"10000"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	APIBaseURL string            `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	Upstream   httpclient.Config `envPrefix:"UPSTREAM_"`

	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"false"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTIssuer string `env:"JWT_ISSUER"`

	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"50"`
	ShippingFlatRate      decimal.Decimal `env:"SHIPPING_FLAT_RATE" envDefault:"10"`
	TaxRate               decimal.Decimal `env:"TAX_RATE" envDefault:"0.1"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`

	Tracing tracing.Config `envPrefix:"OTEL_"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Pricing returns the checkout pricing policy.
func (c *Config) Pricing() domain.PricingPolicy {
	return domain.PricingPolicy{
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFlatRate:      c.ShippingFlatRate,
		TaxRate:               c.TaxRate,
	}
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("CART_HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case StorageRedis, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of redis, postgres, memory, got %q", c.StorageDriver)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL must not be negative")
	}
	if c.SessionCacheSize < 1 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.SessionCacheSize)
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED is set")
	}
	if c.FreeShippingThreshold.IsNegative() || c.ShippingFlatRate.IsNegative() || c.TaxRate.IsNegative() {
		return fmt.Errorf("pricing settings must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.Environment == "production" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}
