// Package llm wraps the text-completion backends behind one interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmpty   = errors.New("llm: empty completion")
	ErrNoKey   = errors.New("llm: api key not set")
	ErrUnknown = errors.New("llm: unknown provider")
)

// Completer turns one prompt into one completion. Implementations make a
// single attempt; callers supply their own fallback.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

type Config struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"-"`
	BaseURL  string        `yaml:"base_url"`
	Proxy    string        `yaml:"proxy"`
	Timeout  time.Duration `yaml:"timeout"`
}

// New builds the configured completer. ProviderNone yields a nil Completer,
// which callers treat as an always-failing backend.
func New(ctx context.Context, cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		o, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, cfg.Provider)
	}
}

func clean(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
