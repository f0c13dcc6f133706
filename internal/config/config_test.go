package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.KVDriver)
	assert.Equal(t, "./data/solace.db", cfg.SQLitePath)
	assert.Equal(t, "default-user", cfg.DefaultUserID)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("SOLACE_BACKEND_HTTP_PORT", "9191")
	t.Setenv("SOLACE_BACKEND_KV_DRIVER", "postgres")
	t.Setenv("SOLACE_BACKEND_POSTGRES_DSN", "postgres://localhost:5432/solace")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.KVDriver)
}

func TestResolveDefaults_PostgresRequiresDSN(t *testing.T) {
	cfg := &Config{KVDriver: "postgres", OpTimeoutSeconds: 5}
	err := cfg.ResolveDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestResolveDefaults_UnsupportedDriver(t *testing.T) {
	cfg := &Config{KVDriver: "etcd", OpTimeoutSeconds: 5}
	err := cfg.ResolveDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported KV_DRIVER")
}

func TestResolveDefaults_RejectsZeroTimeout(t *testing.T) {
	cfg := &Config{KVDriver: "sqlite", SQLitePath: "x.db", OpTimeoutSeconds: 0}
	require.Error(t, cfg.ResolveDefaults())
}
