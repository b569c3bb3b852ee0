package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 8, cfg.Search.MaxSuggestions)
	assert.Equal(t, 5*time.Minute, cfg.Search.ResultCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.SnapshotRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.Analytics.PopularRetention)
	assert.Equal(t, 100, cfg.Analytics.ZeroResultWindow)
	assert.Equal(t, 24*time.Hour, cfg.Shipping.RateCacheTTL)
	assert.NotEmpty(t, cfg.Shipping.UPS.BaseURL)
}

func TestValidate_ProductionRequirements(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"

	// Missing password
	err := cfg.validate()
	require.Error(t, err)

	cfg.Database.Password = "secret"
	err = cfg.validate()
	require.Error(t, err, "sslmode=disable rejected in production")

	cfg.Database.SSLMode = "require"
	cfg.HTTP.CORSAllowOrigins = []string{"*"}
	err = cfg.validate()
	require.Error(t, err, "wildcard CORS rejected in production")

	cfg.HTTP.CORSAllowOrigins = []string{"https://shop.example.com"}
	assert.NoError(t, cfg.validate())
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
	assert.Error(t, cfg.validate())
}

func TestDSN_EscapesCredentials(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "app user",
		Password: "p@ss/word",
		DBName:   "storefront",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "app%20user:") // space escaped, not raw
	assert.NotContains(t, dsn, "p@ss/word")
	assert.Contains(t, dsn, "sslmode=disable")
}
