package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/services"
)

// isolate runs the test in an empty directory so a stray .env cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.AllowInsecureHTTP)
	assert.Equal(t, services.CreationRatingPolicy, cfg.Builder.RatingCreation)
	assert.Equal(t, services.EditRatingPolicy, cfg.Builder.RatingEdit)
	assert.Equal(t, 30*time.Second, cfg.Builder.AutosaveInterval)
	assert.Equal(t, "feedbacktool.db", filepath.Base(cfg.Store.Path))
}

func TestYAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
api:
  base_url: https://feedback.example.com/api
  timeout: 5s
locale: zh
store:
  path: /tmp/ft.db
builder:
  rating_edit:
    default_scale: 5
    min_scale: 3
    max_scale: 10
    fixed_scale: false
  autosave_interval: 10s
ai:
  provider: openai
`)
	t.Setenv("FEEDBACKTOOL_API_TIMEOUT", "12s")
	t.Setenv("FEEDBACKTOOL_ALLOW_INSECURE_HTTP", "true")
	t.Setenv("FEEDBACKTOOL_AI_API_KEY", "k-123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://feedback.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.AllowInsecureHTTP)
	assert.Equal(t, "zh", cfg.ResolvedLocale())
	assert.Equal(t, "/tmp/ft.db", cfg.Store.Path)
	assert.False(t, cfg.Builder.RatingEdit.FixedScale)
	assert.Equal(t, 5, cfg.Builder.RatingEdit.DefaultScale)
	assert.Equal(t, 10*time.Second, cfg.Builder.AutosaveInterval)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "k-123", cfg.AI.APIKey)
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "FEEDBACKTOOL_STORE_SECRET=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("FEEDBACKTOOL_STORE_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Store.Secret)
}

func TestUnknownYAMLField(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "api:\n  base_urll: https://x.test\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "base_urll")
}

func TestBadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("FEEDBACKTOOL_API_TIMEOUT", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "FEEDBACKTOOL_API_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"relative url":  func(c *Config) { c.API.BaseURL = "/api" },
		"ftp url":       func(c *Config) { c.API.BaseURL = "ftp://x.test/api" },
		"zero timeout":  func(c *Config) { c.API.Timeout = 0 },
		"no store":      func(c *Config) { c.Store.Path = " " },
		"scale bounds":  func(c *Config) { c.Builder.RatingCreation.MaxScale = 1 },
		"default scale": func(c *Config) { c.Builder.RatingEdit.DefaultScale = 11 },
		"fast autosave": func(c *Config) { c.Builder.AutosaveInterval = time.Millisecond },
		"log level":     func(c *Config) { c.Log.Level = "loud" },
		"ai provider":   func(c *Config) { c.AI.Provider = "claude" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
