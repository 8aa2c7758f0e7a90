package llm

import (
	"context"
	"fmt"
	log "log/slog"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoKey
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Proxy != "" {
		hc, err := httpClient(cfg)
		if err != nil {
			return nil, err
		}
		cc.HTTPClient = hc
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	log.Debug("Loaded gemini", "model", model)
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return clean(res.Text())
}
