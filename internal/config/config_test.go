package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.CollapseRequests)
	assert.True(t, cfg.Sources.InternalAPIEnabled)
	assert.Equal(t, "https://open.er-api.com/v6", cfg.Sources.ExternalAPIURL)
	assert.Equal(t, 10*time.Second, cfg.Sources.HTTPTimeout)
	assert.Equal(t, 3, cfg.Sources.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Sources.BackoffBase)
	assert.Zero(t, cfg.Sources.MockSeed)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.BadgerDir)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "http://localhost:8080/api/marketdata", cfg.MarketDataURL())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FX_SERVER_PORT", "9090")
	t.Setenv("FX_CACHE_TTL", "90s")
	t.Setenv("FX_CACHE_COLLAPSE_REQUESTS", "true")
	t.Setenv("FX_SOURCES_MOCK_SEED", "42")
	t.Setenv("FX_STORAGE_DRIVER", "Redis")
	t.Setenv("FX_STORAGE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FX_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.CollapseRequests)
	assert.Equal(t, uint64(42), cfg.Sources.MockSeed)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://localhost:9090/api/marketdata", cfg.MarketDataURL())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
cache:
  ttl: 1m
sources:
  internal_api_enabled: false
  internal_api_url: http://rates.internal/api/marketdata
storage:
  in_memory: true
  badger_dir: ""
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Sources.InternalAPIEnabled)
	assert.Equal(t, "http://rates.internal/api/marketdata", cfg.MarketDataURL())
	assert.True(t, cfg.Storage.InMemory)

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FX_SERVER_PORT", "6060")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 6060, cfg.Server.Port)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"port out of range":   {"FX_SERVER_PORT": "70000"},
		"non-positive ttl":    {"FX_CACHE_TTL": "0s"},
		"no attempts":         {"FX_SOURCES_MAX_ATTEMPTS": "0"},
		"unknown driver":      {"FX_STORAGE_DRIVER": "postgres"},
		"redis without url":   {"FX_STORAGE_DRIVER": "redis"},
		"badger without dir":  {"FX_STORAGE_BADGER_DIR": ""},
		"empty external url":  {"FX_SOURCES_EXTERNAL_API_URL": ""},
		"zero shutdown grace": {"FX_SERVER_SHUTDOWN_TIMEOUT": "0s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("values reach Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("FX_SERVER_PORT=5050\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("FX_SERVER_PORT") })

		require.NoError(t, LoadEnvFile(path))
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 5050, cfg.Server.Port)
	})
}
