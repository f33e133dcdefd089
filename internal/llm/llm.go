// Package llm talks to text completion services.
package llm

import (
	"context"
	"strings"
	"time"
)

// Defaults applied when a Request leaves them unset.
const (
	DefaultSystem      = "You are a helpful assistant."
	DefaultTemperature = 0.2
	DefaultTimeout     = 60 * time.Second
)

// Provider is the interface for completion services.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	IsConfigured() bool
}

// Request is one completion call.
type Request struct {
	Prompt      string
	System      string
	Temperature *float64
	MaxTokens   int
	// Schema asks providers that support structured output to enforce it.
	Schema *Schema
}

func (r Request) system() string {
	if strings.TrimSpace(r.System) == "" {
		return DefaultSystem
	}
	return r.System
}

func (r Request) temperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float64) *float64 { return &t }

// Options selects and configures a provider.
type Options struct {
	Provider string // chat, ollama, openai or gemini
	URL      string
	Model    string
	Token    string
	Timeout  time.Duration
}

func (o Options) timeout() time.Duration {
	return timeoutOrDefault(o.Timeout)
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// CreateProvider creates a provider from options. A missing endpoint or
// model is a ConfigurationError.
func CreateProvider(opts Options) (Provider, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Provider))
	if kind == "" {
		kind = "chat"
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, &ConfigurationError{Field: "llm.model", Reason: "is not set"}
	}

	switch kind {
	case "chat":
		if strings.TrimSpace(opts.URL) == "" {
			return nil, &ConfigurationError{Field: "llm.url", Reason: "is not set"}
		}
		return NewChatProvider(opts.URL, opts.Model, opts.Token, opts.timeout()), nil
	case "ollama":
		if strings.TrimSpace(opts.URL) == "" {
			return nil, &ConfigurationError{Field: "llm.url", Reason: "is not set"}
		}
		return NewOllamaProvider(opts.Model, opts.URL, opts.timeout()), nil
	case "openai":
		if strings.TrimSpace(opts.Token) == "" {
			return nil, &ConfigurationError{Field: "llm.token", Reason: "is required for the openai provider"}
		}
		return NewOpenAIProvider(opts.Model, opts.Token, opts.URL, opts.timeout()), nil
	case "gemini":
		if strings.TrimSpace(opts.Token) == "" {
			return nil, &ConfigurationError{Field: "llm.token", Reason: "is required for the gemini provider"}
		}
		return NewGeminiProvider(opts.Model, opts.Token, opts.URL, opts.timeout()), nil
	default:
		return nil, &ConfigurationError{Field: "llm.provider", Reason: "must be chat, ollama, openai or gemini, got " + opts.Provider}
	}
}

// Unconfigured is a Provider standing in for a service that could not be
// created. Every call fails with its ConfigurationError.
type Unconfigured struct {
	Err error
}

// Generate always returns the configuration error.
func (u Unconfigured) Generate(context.Context, Request) (string, error) {
	return "", u.Err
}

// IsConfigured reports false.
func (u Unconfigured) IsConfigured() bool { return false }
