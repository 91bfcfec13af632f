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

	assert.Equal(t, "crossbay-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, float64(1_000_000), cfg.Pricing.AmountCeiling)
	assert.Equal(t, 0.01, cfg.Pricing.SettlementEpsilon)
	assert.Equal(t, time.Minute, cfg.Expiration.SweepInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Expiration.DefaultValidity)
	assert.Equal(t, time.Hour, cfg.Reconciliation.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)

	t.Run("explicit values survive", func(t *testing.T) {
		cfg := &Config{}
		cfg.App.Port = "9090"
		cfg.Database.MaxOpenConns = 50
		cfg.Pricing.AmountCeiling = 250_000
		applyDefaults(cfg)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, float64(250_000), cfg.Pricing.AmountCeiling)
	})
}

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 100
		assert.Error(t, cfg.validate())
	})

	t.Run("amount ceiling must be positive", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pricing.AmountCeiling = -1
		assert.Error(t, cfg.validate())
	})

	t.Run("sampling ratio bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})

	t.Run("production hardening", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate(), "missing password must fail")

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate(), "sslmode disable must fail")

		cfg.Database.SSLMode = "require"
		require.NoError(t, cfg.validate())

		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate(), "wildcard CORS must fail")
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "crossbay",
		Password: "p@ss/word",
		DBName:   "crossbay",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
