package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "packages", cfg.Elasticsearch.Index)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("VALKEY_PACKAGES_TTL_SEC", "5")
	t.Setenv("ELASTICSEARCH_TIMEOUT", "2s")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2*time.Second, cfg.Elasticsearch.Timeout)
	assert.False(t, cfg.MetricsEnabled)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("NATS_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.NATS.Enabled)
}
