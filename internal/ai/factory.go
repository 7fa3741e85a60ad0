package ai

import (
	"fmt"

	"voice-assistant/internal/config"

	"go.uber.org/zap"
)

// NewAIClient создает AI клиент на основе конфигурации
func NewAIClient(cfg config.AIConfig, logger *zap.Logger) (AIClient, error) {
	switch cfg.Provider {
	case "placeholder", "":
		return NewPlaceholderClient(), nil
	case "openai", "deepseek", "openrouter":
		return NewOpenAIClient(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый AI провайдер: %s. Поддерживаются: 'placeholder', 'openai', 'deepseek', 'openrouter'", cfg.Provider)
	}
}
