package tts

import (
	"context"
	"time"

	"voice-assistant/pkg/models"
)

// TTSService представляет интерфейс для Text-to-Speech провайдера
type TTSService interface {
	// SynthesizeText преобразует текст в аудио выбранным голосом.
	// Пустой voiceID означает голос по умолчанию.
	SynthesizeText(ctx context.Context, text, voiceID string) ([]byte, error)

	// ListVoices возвращает голоса, доступные у провайдера
	ListVoices(ctx context.Context) ([]models.Voice, error)
}

// AudioCache хранилище уже синтезированного аудио
type AudioCache interface {
	GetAudio(ctx context.Context, key string) ([]byte, bool, error)
	SaveAudio(ctx context.Context, key string, data []byte, ttl time.Duration) error
}
