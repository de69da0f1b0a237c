package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawpal/internal/platform/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "pawpal", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 256, cfg.Plan.CacheSize)
	assert.Empty(t, cfg.DB.DSN)
	assert.Equal(t, logger.Info, cfg.LoggerOptions().Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")
	path := writeConfig(t, `
http:
  port: 9090
  read_timeout: 2s
log:
  level: debug
  format: json
plan:
  cache_size: 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 16, cfg.Plan.CacheSize)
	assert.Equal(t, logger.FormatJSON, cfg.LoggerOptions().Format)

	t.Setenv("PAWPAL_HTTP_PORT", "7070")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
}

func TestLoad_LegacyPortAndDSN(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DB_DSN", "postgres://localhost/pawpal")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "postgres://localhost/pawpal", cfg.DB.DSN)

	// El archivo gana sobre PORT.
	cfg, err = Load(writeConfig(t, "http:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTP.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "")
	_, err := Load(writeConfig(t, "plan:\n  cache_size: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "http: [not, a, map\n"))
	assert.Error(t, err)
}

func TestLoad_AuthSection(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "X-Api-Key", cfg.Auth.APIKeyHeader)
	assert.Equal(t, time.Minute, cfg.Auth.CacheTTL)

	t.Setenv("PAWPAL_AUTH_INTROSPECT_URL", "https://iam.local")
	_, err = Load(writeConfig(t, "{}\n"))
	assert.Error(t, err)

	t.Setenv("PAWPAL_AUTH_API_KEY", "secret")
	cfg, err = Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, "secret", cfg.Auth.APIKey)
}

func TestLoad_DBPool(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5, cfg.DB.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 3*time.Second, cfg.DB.PingTimeout)

	cfg, err = Load(writeConfig(t, "db:\n  max_open_conns: 20\n  ping_timeout: 1s\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.DB.MaxOpenConns)
	assert.Equal(t, time.Second, cfg.DB.PingTimeout)

	_, err = Load(writeConfig(t, "db:\n  max_open_conns: 2\n  max_idle_conns: 5\n"))
	assert.Error(t, err)
}
