package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StorageRedis, cfg.StorageDriver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, time.Duration(0), cfg.CartTTL)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "storefront-cart", cfg.Tracing.ServiceName)
}

func TestLoad_PricingDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	p := cfg.Pricing()
	assert.Equal(t, "50", p.FreeShippingThreshold.String())
	assert.Equal(t, "10", p.ShippingFlatRate.String())
	assert.Equal(t, "0.1", p.TaxRate.String())
}

func TestLoad_NestedPrefixes(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("UPSTREAM_MAX_RETRIES", "5")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, 5, cfg.Upstream.MaxRetries)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_CustomPricing(t *testing.T) {
	t.Setenv("FREE_SHIPPING_THRESHOLD", "99.99")
	t.Setenv("TAX_RATE", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "99.99", cfg.FreeShippingThreshold.String())
	assert.True(t, cfg.TaxRate.IsZero())
}

func TestLoad_InvalidDecimal(t *testing.T) {
	t.Setenv("SHIPPING_FLAT_RATE", "ten")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_NegativePricing(t *testing.T) {
	t.Setenv("TAX_RATE", "-0.2")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "pricing")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("CART_HTTP_PORT", "0")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "CART_HTTP_PORT")
}

func TestLoad_UnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.JWTSecret)
}
