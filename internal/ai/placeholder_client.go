package ai

import (
	"context"
	"fmt"
)

// PlaceholderClient заглушка диалога: детерминированно повторяет реплику пользователя.
// Точка интеграции для внешней диалоговой системы, а не поведение ассистента.
type PlaceholderClient struct{}

// NewPlaceholderClient создает заглушку
func NewPlaceholderClient() *PlaceholderClient {
	return &PlaceholderClient{}
}

// PlaceholderReply формирует шаблонный ответ на сообщение
func PlaceholderReply(message string) string {
	return fmt.Sprintf(`You said: "%s". This is a placeholder response from the virtual assistant.`, message)
}

// GenerateResponse отвечает шаблоном на последнюю реплику пользователя
func (c *PlaceholderClient) GenerateResponse(ctx context.Context, messages []Message, options GenerationOptions) (*Response, error) {
	return &Response{
		Content:      PlaceholderReply(lastUserMessage(messages)),
		Model:        "placeholder",
		FinishReason: "stop",
		Provider:     c.GetName(),
	}, nil
}

func (c *PlaceholderClient) GetName() string {
	return "Placeholder"
}
