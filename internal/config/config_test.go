package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uitrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, "headless: true\ndataset_root: out\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "out", cfg.DatasetRoot)
	assert.Equal(t, float64(DefaultNavTimeoutMs), cfg.NavTimeoutMs)
	assert.Equal(t, DefaultMatcherConfig(), cfg.Matcher)
	assert.True(t, cfg.Auth.PromptOnLoginPage)
}

func TestLoadOverridesMatcherWeights(t *testing.T) {
	path := writeConfig(t, `
matcher:
  action_keyword: 20
  in_modal: 50
auth:
  prompt_on_login_button: false
  root_path_depth: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Matcher.ActionKeyword)
	assert.Equal(t, 50, cfg.Matcher.InModal)
	// Untouched weights keep their defaults.
	assert.Equal(t, DefaultMatcherConfig().ObjectKeyword, cfg.Matcher.ObjectKeyword)
	assert.False(t, cfg.Auth.PromptOnLoginButton)
	assert.Equal(t, 4, cfg.Auth.RootPathDepth)

	w := cfg.Matcher.Weights()
	assert.Equal(t, 20, w.ActionKeyword)
	assert.Equal(t, 50, w.InModal)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "headless: [broken\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty dataset root", func(c *Config) { c.DatasetRoot = "" }, "dataset_root"},
		{"zero nav timeout", func(c *Config) { c.NavTimeoutMs = 0 }, "nav_timeout_ms"},
		{"negative action timeout", func(c *Config) { c.ActionTimeoutMs = -1 }, "action_timeout_ms"},
		{"zero quiesce timeout", func(c *Config) { c.QuiesceTimeoutMs = 0 }, "quiesce_timeout_ms"},
		{"negative slowmo", func(c *Config) { c.SlowMoMs = -10 }, "slow_mo_ms"},
		{"zero root depth", func(c *Config) { c.Auth.RootPathDepth = 0 }, "auth.root_path_depth"},
		{"persistent context without dir", func(c *Config) { c.PersistentContext = true }, "persistent_context_dir"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini" }, "llm.provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			require.Error(t, err)
			require.True(t, IsValidationError(err))
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	cfg := DefaultConfig()
	assert.NoError(t, Validate(&cfg))
}
