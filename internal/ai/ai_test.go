package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlaceholderReply(t *testing.T) {
	assert.Equal(t,
		`You said: "hi". This is a placeholder response from the virtual assistant.`,
		PlaceholderReply("hi"))
}

func TestPlaceholderClient_UsesLastUserMessage(t *testing.T) {
	c := NewPlaceholderClient()

	resp, err := c.GenerateResponse(context.Background(), []Message{
		{Role: "system", Content: GetSystemPrompt()},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}, GenerationOptions{})
	require.NoError(t, err)

	assert.Equal(t, PlaceholderReply("second"), resp.Content)
	assert.Equal(t, "Placeholder", resp.Provider)
}

func TestNewAIClient(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantName string
		wantErr  bool
	}{
		{name: "заглушка по умолчанию", provider: "", wantName: "Placeholder"},
		{name: "заглушка явно", provider: "placeholder", wantName: "Placeholder"},
		{name: "deepseek", provider: "deepseek", wantName: "deepseek"},
		{name: "openrouter", provider: "openrouter", wantName: "openrouter"},
		{name: "неизвестный провайдер", provider: "gigachat", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewAIClient(config.AIConfig{Provider: tt.provider, APIKey: "key"}, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, client.GetName())
		})
	}
}

func TestOpenAIClient_GenerateResponse(t *testing.T) {
	var gotRequest struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("deepseek", "test-key", srv.URL, "deepseek-chat", zap.NewNop())
	resp, err := c.GenerateResponse(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerationOptions{MaxTokens: 50})
	require.NoError(t, err)

	assert.Equal(t, "Hello there!", resp.Content)
	assert.Equal(t, 13, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "deepseek-chat", gotRequest.Model)
	require.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "hi", gotRequest.Messages[0].Content)
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("openai", "test-key", srv.URL, "m", zap.NewNop())
	_, err := c.GenerateResponse(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerationOptions{})
	assert.Error(t, err)
}
