package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "development", config.Server.Environment)
	assert.Equal(t, []string{"*"}, config.Server.AllowedOrigins)

	assert.Equal(t, "catalog_snapshot.json", config.Catalog.SnapshotPath)
	assert.Equal(t, "overrides.db", config.Overrides.DBPath)

	assert.Equal(t, 0.6, config.Matching.MinConfidence)
	assert.Equal(t, 0.8, config.Matching.HighConfidence)
	assert.Equal(t, 0.15, config.Matching.PriceTolerance)
	assert.Equal(t, 0.01, config.Matching.DivisibilityTolerance)

	assert.Equal(t, time.Hour, config.Cache.TTL)
	assert.Equal(t, 100, config.RateLimit.PerIP)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RECEIPTLY_SERVER_PORT", "9090")
	t.Setenv("RECEIPTLY_MATCHING_MIN_CONFIDENCE", "0.7")
	t.Setenv("RECEIPTLY_CATALOG_SNAPSHOT_PATH", "/data/export.json")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, 0.7, config.Matching.MinConfidence)
	assert.Equal(t, "/data/export.json", config.Catalog.SnapshotPath)
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "min confidence above one", key: "RECEIPTLY_MATCHING_MIN_CONFIDENCE", value: "1.5"},
		{name: "high confidence below min", key: "RECEIPTLY_MATCHING_HIGH_CONFIDENCE", value: "0.1"},
		{name: "price tolerance at one", key: "RECEIPTLY_MATCHING_PRICE_TOLERANCE", value: "1"},
		{name: "price window zero", key: "RECEIPTLY_MATCHING_PRICE_WINDOW", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
