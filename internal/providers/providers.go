package providers

import (
	"context"
	"fmt"
	"strings"
)

// Config is one completion request sent to an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// JSON asks the provider to reply with a single JSON object when it supports it
	JSON bool
}

// Provider completes a text prompt with an LLM
type Provider interface {
	Complete(ctx context.Context, config Config) (string, error)
}

// Names of the supported providers
const (
	Ollama = "ollama"
	OpenAI = "openai"
	Gemini = "gemini"
)

// DefaultModel returns the model used for a provider when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case OpenAI:
		return "gpt-4o-mini"
	case Gemini:
		return "gemini-1.5-flash"
	default:
		return "mistral-small3.2:24b"
	}
}

// Normalize lowercases a provider name and rejects unknown ones
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Ollama, nil
	}
	switch n {
	case Ollama, OpenAI, Gemini:
		return n, nil
	}
	return "", fmt.Errorf("unsupported translation provider %q", name)
}
