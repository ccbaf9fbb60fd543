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

	assert.Equal(t, "fulfillment", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "https://api.easypost.com/v2", cfg.Carrier.BaseURL)

	assert.Equal(t, 1.0, cfg.Shipping.DefaultWeight)
	assert.Equal(t, 150.0, cfg.Shipping.HighWeightThreshold)
	assert.Equal(t, 60.0, cfg.Shipping.BulkDimensionThreshold)
	assert.Equal(t, 300.0, cfg.Shipping.CombinedWeightThreshold)
	assert.Equal(t, time.Hour, cfg.Shipping.QuoteTTL)
	assert.Equal(t, 5, cfg.Shipping.MaxTransitDays)
}

func TestLoadConfidenceThreshold(t *testing.T) {
	t.Run("defaults to 75 when unset", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 75, cfg.Shipping.ConfidenceThreshold)
	})

	t.Run("explicit zero survives", func(t *testing.T) {
		t.Setenv("FULFILLMENT_SHIPPING_CONFIDENCE_THRESHOLD", "0")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Shipping.ConfidenceThreshold)
		assert.Equal(t, 0, cfg.Shipping.SelectionOptions().ConfidenceThreshold)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults validate", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("combined threshold below high threshold", func(t *testing.T) {
		cfg := base()
		cfg.Shipping.CombinedWeightThreshold = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("confidence threshold out of range", func(t *testing.T) {
		cfg := base()
		cfg.Shipping.ConfidenceThreshold = 101
		assert.Error(t, cfg.validate())
	})

	t.Run("unknown environment", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "qa"
		assert.Error(t, cfg.validate())
	})
}

func TestShippingConfigAssembly(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Shipping.ConfidenceThreshold = 75
	cfg.Shipping.OriginLine1 = "500 Dock Rd"
	cfg.Shipping.OriginCity = "Orlando"
	cfg.Shipping.OriginState = "FL"
	cfg.Shipping.OriginPostalCode = "32801"

	origin := cfg.Shipping.OriginAddress()
	assert.True(t, origin.Complete())
	assert.Equal(t, "US", origin.Country)

	planner := cfg.Shipping.PlannerConfig()
	assert.Equal(t, 12.0, planner.DefaultBox.Length)

	sel := cfg.Shipping.SelectionOptions()
	require.Equal(t, 5, sel.MaxTransitDays)
	assert.Equal(t, 75, sel.ConfidenceThreshold)
}
