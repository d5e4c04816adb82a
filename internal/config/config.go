package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/polzovatel/uitrace/internal/page"
)

// Default values for Config.
const (
	DefaultDatasetRoot    = "dataset"
	DefaultNavTimeoutMs   = 30000
	DefaultActionTimeout  = 10000
	DefaultQuiesceTimeout = 5000
	DefaultSlowMoMs       = 0
	DefaultRootPathDepth  = 3
	DefaultLLMProvider    = "anthropic"
	DefaultTemperature    = 0.0
)

// Config is the top level run configuration, loaded from a YAML file with
// defaults applied for missing fields.
type Config struct {
	DatasetRoot          string   `yaml:"dataset_root"`
	Headless             bool     `yaml:"headless"`
	SlowMoMs             float64  `yaml:"slow_mo_ms"`
	PersistentContext    bool     `yaml:"persistent_context"`
	PersistentContextDir string   `yaml:"persistent_context_dir"`
	StorageState         string   `yaml:"storage_state"`
	NavTimeoutMs         float64  `yaml:"nav_timeout_ms"`
	ActionTimeoutMs      float64  `yaml:"action_timeout_ms"`
	QuiesceTimeoutMs     float64  `yaml:"quiesce_timeout_ms"`
	CommonButtonText     []string `yaml:"common_button_text"`

	Matcher MatcherConfig `yaml:"matcher"`
	Auth    AuthConfig    `yaml:"auth"`
	LLM     LLMConfig     `yaml:"llm"`
}

// MatcherConfig exposes the button scoring weights for tuning.
type MatcherConfig struct {
	ActionKeyword int `yaml:"action_keyword"`
	ObjectKeyword int `yaml:"object_keyword"`
	Combined      int `yaml:"combined"`
	InModal       int `yaml:"in_modal"`
	CreateExact   int `yaml:"create_exact"`
	AddPenalty    int `yaml:"add_penalty"`
}

// Weights converts the matcher section into scoring weights.
func (m MatcherConfig) Weights() page.Weights {
	return page.Weights{
		ActionKeyword: m.ActionKeyword,
		ObjectKeyword: m.ObjectKeyword,
		Combined:      m.Combined,
		InModal:       m.InModal,
		CreateExact:   m.CreateExact,
		AddPenalty:    m.AddPenalty,
	}
}

// AuthConfig controls when a run pauses for manual login.
type AuthConfig struct {
	PromptOnLoginPage   bool `yaml:"prompt_on_login_page"`
	PromptOnLoginButton bool `yaml:"prompt_on_login_button"`
	RootPathDepth       int  `yaml:"root_path_depth"`
}

// LLMConfig selects the planning model provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultMatcherConfig returns the matcher weights used when the config
// file does not override them.
func DefaultMatcherConfig() MatcherConfig {
	w := page.DefaultWeights()
	return MatcherConfig{
		ActionKeyword: w.ActionKeyword,
		ObjectKeyword: w.ObjectKeyword,
		Combined:      w.Combined,
		InModal:       w.InModal,
		CreateExact:   w.CreateExact,
		AddPenalty:    w.AddPenalty,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		DatasetRoot:      DefaultDatasetRoot,
		Headless:         false,
		SlowMoMs:         DefaultSlowMoMs,
		NavTimeoutMs:     DefaultNavTimeoutMs,
		ActionTimeoutMs:  DefaultActionTimeout,
		QuiesceTimeoutMs: DefaultQuiesceTimeout,
		CommonButtonText: []string{
			"Create", "New", "Add", "Save", "Submit", "Confirm",
			"Search", "Google Search",
		},
		Matcher: DefaultMatcherConfig(),
		Auth: AuthConfig{
			PromptOnLoginPage:   true,
			PromptOnLoginButton: true,
			RootPathDepth:       DefaultRootPathDepth,
		},
		LLM: LLMConfig{
			Provider:    DefaultLLMProvider,
			Temperature: DefaultTemperature,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads and parses a YAML config file. A missing file is not an
// error; defaults are returned. Missing fields fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if cfg.DatasetRoot == "" {
		return ValidationError{Field: "dataset_root", Message: "required field is empty"}
	}
	if cfg.NavTimeoutMs <= 0 {
		return ValidationError{Field: "nav_timeout_ms", Message: "must be positive"}
	}
	if cfg.ActionTimeoutMs <= 0 {
		return ValidationError{Field: "action_timeout_ms", Message: "must be positive"}
	}
	if cfg.QuiesceTimeoutMs <= 0 {
		return ValidationError{Field: "quiesce_timeout_ms", Message: "must be positive"}
	}
	if cfg.SlowMoMs < 0 {
		return ValidationError{Field: "slow_mo_ms", Message: "must not be negative"}
	}
	if cfg.Auth.RootPathDepth <= 0 {
		return ValidationError{Field: "auth.root_path_depth", Message: "must be positive"}
	}
	if cfg.PersistentContext && cfg.PersistentContextDir == "" {
		return ValidationError{Field: "persistent_context_dir", Message: "required when persistent_context is enabled"}
	}
	switch cfg.LLM.Provider {
	case "anthropic", "openai", "":
	default:
		return ValidationError{Field: "llm.provider", Message: "must be anthropic or openai"}
	}
	return nil
}
