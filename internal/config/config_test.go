package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 5175, cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "./data/twoworlds.db", cfg.DatabasePath)
	assert.Equal(t, "twoworlds_token", cfg.CookieName)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 14*24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, ":5175", cfg.Addr())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE", "memory")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("PRODUCTION", "true")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Production)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"PORT": "not-an-int"},
		"port range":        {"PORT": "70000"},
		"storage":           {"STORAGE": "redis"},
		"expiry":            {"JWT_EXPIRES_DAYS": "0"},
		"production secret": {"PRODUCTION": "true"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nPORT=9001\n"), 0o600))
	t.Setenv("PORT", "9002")
	t.Cleanup(func() { _ = os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9002, cfg.Port, "environment wins over .env")
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
