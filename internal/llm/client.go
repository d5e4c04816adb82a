package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// envProvider overrides the configured provider, "anthropic" or "openai".
const envProvider = "LLM_PROVIDER"

// Client generates text completions for planning.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	Text string
}

// NewClient creates a client for the given provider. The LLM_PROVIDER env
// var takes precedence over the argument; an empty provider defaults to
// Anthropic.
func NewClient(provider string, logger zerolog.Logger) (Client, error) {
	if env := strings.ToLower(strings.TrimSpace(os.Getenv(envProvider))); env != "" {
		provider = env
	}
	if provider == "" {
		provider = "anthropic"
	}

	switch provider {
	case "openai":
		return newOpenAI(logger)
	case "anthropic":
		return newAnthropic(logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (use 'anthropic' or 'openai')", provider)
	}
}
