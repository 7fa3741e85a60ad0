package ai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient клиент для OpenAI-совместимых API (OpenAI, DeepSeek, OpenRouter)
type OpenAIClient struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewOpenAIClient создает клиент; пустой baseURL означает api.openai.com
func NewOpenAIClient(provider, apiKey, baseURL, model string, logger *zap.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		provider: provider,
		logger:   logger,
	}
}

// GenerateResponse генерирует ответ через chat completions
func (c *OpenAIClient) GenerateResponse(ctx context.Context, messages []Message, options GenerationOptions) (*Response, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMessages,
	}
	if options.Temperature > 0 {
		request.Temperature = float32(options.Temperature)
	}
	if options.MaxTokens > 0 {
		request.MaxTokens = options.MaxTokens
	}

	c.logger.Debug("отправляем запрос к AI",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Int("messages_count", len(messages)))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к %s: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("пустой ответ от %s", c.provider)
	}

	content := resp.Choices[0].Message.Content

	c.logger.Info("получен ответ от AI",
		zap.String("provider", c.provider),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
		zap.Int("content_length", len(content)))

	return &Response{
		Content: content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
		Provider:     c.provider,
	}, nil
}

func (c *OpenAIClient) GetName() string {
	return c.provider
}
