package tts

import (
	"context"
	"time"

	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// CachedService добавляет кеширование синтезированного аудио поверх провайдера.
// Ошибки кеша не прерывают синтез.
type CachedService struct {
	next    TTSService
	cache   AudioCache
	keyFunc func(text, voiceID string) string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCachedService создает кеширующую обертку
func NewCachedService(next TTSService, cache AudioCache, keyFunc func(text, voiceID string) string, ttl time.Duration, logger *zap.Logger) *CachedService {
	return &CachedService{
		next:    next,
		cache:   cache,
		keyFunc: keyFunc,
		ttl:     ttl,
		logger:  logger,
	}
}

// SynthesizeText возвращает аудио из кеша или синтезирует и сохраняет его
func (s *CachedService) SynthesizeText(ctx context.Context, text, voiceID string) ([]byte, error) {
	key := s.keyFunc(text, voiceID)

	data, found, err := s.cache.GetAudio(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("ошибка чтения кеша аудио", zap.String("key", key), zap.Error(err))
	case found && len(data) > 0:
		s.logger.Debug("аудио найдено в кеше", zap.String("key", key), zap.Int("audio_size", len(data)))
		return data, nil
	}

	data, err = s.next.SynthesizeText(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SaveAudio(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("ошибка сохранения аудио в кеш", zap.String("key", key), zap.Error(err))
	}

	return data, nil
}

// ListVoices не кешируется
func (s *CachedService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	return s.next.ListVoices(ctx)
}
