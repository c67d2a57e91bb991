package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "PORT", "DATA_PATH", "REDIS_ADDR", "LOGIN_RATE_LIMIT",
		"LOGIN_RATE_WINDOW", "SAVE_ATTEMPTS", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS"} {
		unsetEnv(t, key)
	}

	cfg := NewConfig()

	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, "data/data.json", cfg.DataPath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, 60*time.Second, cfg.LoginRateWindow)
	assert.Equal(t, 3, cfg.SaveAttempts)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigBadNumbersFallBack(t *testing.T) {
	t.Setenv("LOGIN_RATE_LIMIT", "many")
	t.Setenv("LOGIN_RATE_WINDOW", "soon")

	cfg := NewConfig()

	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, 60*time.Second, cfg.LoginRateWindow)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATA_PATH", "/tmp/snapshot.json")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOGIN_RATE_LIMIT", "5")
	t.Setenv("LOGIN_RATE_WINDOW", "30s")
	t.Setenv("SAVE_ATTEMPTS", "7")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg := NewConfig()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "/tmp/snapshot.json", cfg.DataPath)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 30*time.Second, cfg.LoginRateWindow)
	assert.Equal(t, 7, cfg.SaveAttempts)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestPortFallback(t *testing.T) {
	unsetEnv(t, "HTTP_PORT")
	t.Setenv("PORT", "4000")

	assert.Equal(t, "4000", NewConfig().HTTPPort)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{HTTPPort: "3000", DataPath: "", LoginRateLimit: 0, LoginRateWindow: time.Second, SaveAttempts: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path")
	assert.Contains(t, err.Error(), "login rate limit")
	assert.Contains(t, err.Error(), "save attempts")
	assert.NotContains(t, err.Error(), "window")
}
