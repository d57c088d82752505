package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONSOLE_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "http://localhost:5500/api/users", cfg.UsersAPIURL)
	assert.Equal(t, "http://localhost:5500/api/ai-analysis", cfg.AIAPIURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "en", cfg.SortLanguage)
	assert.False(t, cfg.SecureCookie)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CONSOLE_DATA_DIR", t.TempDir())
	t.Setenv("CONSOLE_PORT", "9001")
	t.Setenv("CONSOLE_USERS_API_URL", "https://api.example.test/users/")
	t.Setenv("CONSOLE_AI_CACHE_TTL_SEC", "5")
	t.Setenv("CONSOLE_SECURE_COOKIE", "true")
	t.Setenv("CONSOLE_LOGIN_RATE_PER_MIN", "not-a-number")

	t.Setenv("CONSOLE_SESSION_SECRET", "a-real-secret-of-sufficient-length")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, "https://api.example.test/users", cfg.UsersAPIURL)
	assert.Equal(t, 5*time.Second, cfg.AICacheTTL)
	assert.True(t, cfg.SecureCookie)
	assert.Equal(t, 10, cfg.LoginRatePerMin)
}

func TestLoad_DataDirError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	t.Setenv("CONSOLE_DATA_DIR", filepath.Join(file, "data"))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Join(file, "data"), cfg.DataDir)
}
