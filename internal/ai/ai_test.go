package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
		"choices":[{"index":0,"message":{"role":"assistant","content":"  Better title \n"},"finish_reason":"stop"}]}`, &seen)

	p := NewOpenAI("test-key", "", srv.URL+"/v1/")
	out, err := p.Generate(context.Background(), Request{Prompt: "improve", SystemPrompt: "be brief", Temperature: 0.7, MaxTokens: 40})
	require.NoError(t, err)
	assert.Equal(t, "Better title", out)

	assert.Equal(t, defaultOpenAIModel, seen.Model)
	assert.InDelta(t, 0.7, seen.Temperature, 0.001)
	assert.Equal(t, 40, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "be brief", seen.Messages[0].Content)
	assert.Equal(t, "user", seen.Messages[1].Role)
}

func TestOpenAIEmptyChoicesIsNoText(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)
	_, err := NewOpenAI("test-key", "m", srv.URL+"/v1").Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestOpenAIUpstreamErrorIsProviderError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit_error"}}`, nil)
	_, err := NewOpenAI("test-key", "m", srv.URL+"/v1").Generate(context.Background(), Request{Prompt: "x"})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ProviderOpenAI, pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestOpenAICancelledContext(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOpenAI("test-key", "m", srv.URL+"/v1").Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: "openai"})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, p.Close())
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, p)

	_, err = New(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestGeminiResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Clear "), genai.Text("title ")}},
	}}}
	out, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Clear title", out)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoText)
	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}})
	assert.ErrorIs(t, err, ErrNoText)
}
