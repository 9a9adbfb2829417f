package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8888
	cfg.Auth.JWTSecret = "secret"
	cfg.Feed.DefaultPageSize = 50
	cfg.Feed.MaxPageSize = 100
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, Validate(validConfig()))
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.JWTSecret = "  "
		assert.Error(t, Validate(cfg))
	})

	t.Run("inconsistent page sizes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Feed.DefaultPageSize = 200
		assert.Error(t, Validate(cfg))
	})

	t.Run("api key without model", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.APIKey = "key"
		cfg.AI.Model = ""
		assert.Error(t, Validate(cfg))
	})
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatterfeed.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9001\n\n[auth]\njwt_secret = \"s3cret\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	// Defaults survive where the file is silent
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, 50, cfg.Feed.DefaultPageSize)
	assert.Equal(t, 100, cfg.Feed.MaxPageSize)
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatterfeed.toml")

	require.NoError(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	// Refuses to overwrite an existing file
	assert.Error(t, InitConfig(path))
}
