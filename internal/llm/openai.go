package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"jarvis/internal/proxy"
)

const DefaultOpenAIModel = openai.ChatModelGPT5Nano

type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoKey
	}

	hc, err := httpClient(cfg)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := DefaultOpenAIModel
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: o.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return clean(resp.Choices[0].Message.Content)
}

func httpClient(cfg Config) (*http.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	hc, err := proxy.NewClient(cfg.Proxy, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial proxy %s: %w", cfg.Proxy, err)
	}
	return hc, nil
}
