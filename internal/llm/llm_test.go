package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	var c Completer = Func(func(_ context.Context, p string) (string, error) {
		return strings.ToUpper(p), nil
	})
	out, err := c.Complete(context.Background(), "sir")
	require.NoError(t, err)
	assert.Equal(t, "SIR", out)
}

func TestNewProviders(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New(ctx, Config{Provider: "claude"})
	assert.ErrorIs(t, err, ErrUnknown)

	c, err = New(ctx, Config{Provider: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrNoKey)
	assert.True(t, c == nil, "failed openai build must yield a nil interface")

	c, err = New(ctx, Config{})
	assert.ErrorIs(t, err, ErrNoKey)
	assert.True(t, c == nil, "failed gemini build must yield a nil interface")
}

func TestClean(t *testing.T) {
	out, err := clean("  Good day, sir.\n")
	require.NoError(t, err)
	assert.Equal(t, "Good day, sir.", out)

	_, err = clean(" \n ")
	assert.ErrorIs(t, err, ErrEmpty)
}

func openAIServer(t *testing.T, status int, content string) (*httptest.Server, *string) {
	t.Helper()
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			io.WriteString(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPrompt
}

func TestOpenAIComplete(t *testing.T) {
	srv, prompt := openAIServer(t, http.StatusOK, "  At your service, sir. ")

	c, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "At your service, sir.", out)
	assert.Equal(t, "hello", *prompt)
}

func TestOpenAICompleteEmpty(t *testing.T) {
	srv, _ := openAIServer(t, http.StatusOK, "")

	c, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOpenAICompleteFailure(t *testing.T) {
	srv, _ := openAIServer(t, http.StatusTooManyRequests, "")

	c, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmpty))
}

func TestGeminiComplete(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Contains(t, r.URL.Path, "models/"+DefaultGeminiModel+":generateContent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"dQw4w9WgXcQ"}]}}]}`)
	}))
	t.Cleanup(srv.Close)

	c, err := NewGemini(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "id please")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", out)
	assert.Equal(t, 1, calls)
}
