package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"inkpress/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inkpress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".md", cfg.Content.Extension)
	assert.Equal(t, "/blog", cfg.Server.Root)
	assert.Equal(t, render.PolicyStructural, cfg.Policy())
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
content:
  dir: posts
renderer: legacy
timeout: 3s
cache:
  enabled: true
  ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "posts", cfg.Content.Dir)
	assert.Equal(t, ".md", cfg.Content.Extension, "unset fields keep defaults")
	assert.Equal(t, render.PolicyLegacy, cfg.Policy())
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_MissingDefaultFileFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown field", "colour: blue\n", ErrConfigParse},
		{"bad yaml", "content: [\n", ErrConfigParse},
		{"bad extension", "content:\n  extension: md\n", ErrInvalid},
		{"bad policy", "renderer: markdown-it\n", ErrInvalid},
		{"bad root", "server:\n  root: blog\n", ErrInvalid},
		{"bad base url", "server:\n  base_url: ftp://cdn\n", ErrInvalid},
		{"zero timeout", "timeout: 0s\n", ErrInvalid},
		{"cache without redis", "cache:\n  enabled: true\n  redis_addr: \"\"\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFetchBase(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8080", cfg.FetchBase())

	cfg.Server.Addr = "127.0.0.1:9000"
	assert.Equal(t, "http://127.0.0.1:9000", cfg.FetchBase())

	cfg.Server.BaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com", cfg.FetchBase())
}
