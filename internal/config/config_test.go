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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 500, cfg.Cache.LocalSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, 2*time.Minute, cfg.Cache.CommentsTTL)
	assert.Equal(t, time.Minute, cfg.Cache.ArticlesTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_STATS_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Cache.StatsTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOCAL_CACHE_SIZE=64\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LOCAL_CACHE_SIZE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Cache.LocalSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CACHE_COMMENTS_TTL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("CACHE_COMMENTS_TTL", "1m")
	t.Setenv("LOCAL_CACHE_SIZE", "0")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
