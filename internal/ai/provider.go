// Package ai wraps the text generation providers used for phrasing assistance.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is one generation call. Zero Temperature and MaxTokens leave the provider defaults.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
}

// Generator produces text for a request. Errors are ErrNotConfigured, ErrNoText, a
// *ProviderError, or a context error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Provider is a Generator holding resources that must be released.
type Provider interface {
	Generator
	Close() error
}

var (
	ErrNotConfigured = errors.New("ai: provider is not configured")
	ErrNoText        = errors.New("ai: no text generated")
)

// ProviderError reports a failure returned by the upstream service.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai: %s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ai: %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Provider string `yaml:"provider" env:"FEEDBACKTOOL_AI_PROVIDER"`
	APIKey   string `yaml:"api_key" env:"FEEDBACKTOOL_AI_API_KEY"`
	Model    string `yaml:"model" env:"FEEDBACKTOOL_AI_MODEL"`
	BaseURL  string `yaml:"base_url" env:"FEEDBACKTOOL_AI_BASE_URL"`
}

// New builds the configured provider. Without a key it returns a provider whose calls fail
// with ErrNotConfigured, so callers never need a nil check.
func New(ctx context.Context, cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}

// Disabled is the provider used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) { return "", ErrNotConfigured }

func (Disabled) Close() error { return nil }

// classify keeps context errors recognisable and wraps everything else.
func classify(provider string, status int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}
