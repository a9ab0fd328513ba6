package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Empty(t, cfg.Server.WebSocketOrigins)
	assert.False(t, cfg.Server.ExposeSessions)

	assert.Equal(t, "HEAD", cfg.Repository.CommitRef)
	assert.False(t, cfg.Repository.PinRef)
	assert.Equal(t, 15*time.Second, cfg.Repository.Timeout)

	assert.Equal(t, "facade-iframe", cfg.Facade.FrameID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	os.Unsetenv("CONFIG_FILE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Repository, cfg.Repository)
	assert.Equal(t, Default().Facade, cfg.Facade)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"REPO_API_URL":       "http://repo.internal",
		"REPO_COMMIT_REF":    "main",
		"REPO_TIMEOUT":       "2s",
		"REPO_PIN_REF":       "true",
		"FACADE_FRAME_ID":    "browser",
		"LOG_LEVEL":          "debug",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "http://repo.internal", cfg.Repository.BaseURL)
	assert.Equal(t, "main", cfg.Repository.CommitRef)
	assert.Equal(t, 2*time.Second, cfg.Repository.Timeout)
	assert.True(t, cfg.Repository.PinRef)
	assert.Equal(t, "browser", cfg.Facade.FrameID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("REPO_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
	assert.NotNil(t, LoadOrDefault())
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "facade.yaml")
		require.NoError(t, os.WriteFile(path, []byte("repository:\n  base_url: http://yaml.test\n  pin_ref: true\n"), 0o600))

		cfg := Default()
		require.NoError(t, cfg.ApplyFile(path))
		assert.Equal(t, "http://yaml.test", cfg.Repository.BaseURL)
		assert.True(t, cfg.Repository.PinRef)
		assert.Equal(t, "HEAD", cfg.Repository.CommitRef)
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "facade.toml")
		require.NoError(t, os.WriteFile(path, []byte("[facade]\nframe_id = \"viewer\"\nline_height = 20\n"), 0o600))

		cfg := Default()
		require.NoError(t, cfg.ApplyFile(path))
		assert.Equal(t, "viewer", cfg.Facade.FrameID)
		assert.Equal(t, 20, cfg.Facade.LineHeight)
		assert.Equal(t, "8000", cfg.Server.Port)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(dir, "facade.ini")
		require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))
		assert.Error(t, Default().ApplyFile(path))
	})

	t.Run("via CONFIG_FILE", func(t *testing.T) {
		path := filepath.Join(dir, "env.yml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\n"), 0o600))
		t.Setenv("CONFIG_FILE", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.Server.Port)
	})
}
