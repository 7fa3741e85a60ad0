package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"voice-assistant/internal/ai"
	"voice-assistant/internal/tts"
	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// UsageRecorder сохраняет запись об обращении к провайдеру
type UsageRecorder interface {
	Create(ctx context.Context, record *models.UsageRecord) error
}

// ProviderMetrics учитывает обращения к провайдерам
type ProviderMetrics interface {
	RecordProviderCall(operation, status string, seconds float64)
	RecordAudioBytes(n int)
}

// Options зависимости и настройки сервиса
type Options struct {
	Transcriber     Transcriber
	TTS             tts.TTSService
	AI              ai.AIClient
	Usage           UsageRecorder   // nil отключает журнал
	Metrics         ProviderMetrics // nil отключает метрики
	ProviderTimeout time.Duration
	SystemPrompt    string
	Generation      ai.GenerationOptions
}

// Service реализует операции голосового шлюза. Состояния между вызовами нет.
type Service struct {
	transcriber  Transcriber
	tts          tts.TTSService
	ai           ai.AIClient
	usage        UsageRecorder
	metrics      ProviderMetrics
	timeout      time.Duration
	systemPrompt string
	generation   ai.GenerationOptions
	logger       *zap.Logger
}

// NewService создает сервис голосового шлюза
func NewService(opts Options, logger *zap.Logger) *Service {
	transcriber := opts.Transcriber
	if transcriber == nil {
		transcriber = PlaceholderTranscriber{}
	}
	aiClient := opts.AI
	if aiClient == nil {
		aiClient = ai.NewPlaceholderClient()
	}
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = ai.GetSystemPrompt()
	}

	return &Service{
		transcriber:  transcriber,
		tts:          opts.TTS,
		ai:           aiClient,
		usage:        opts.Usage,
		metrics:      opts.Metrics,
		timeout:      opts.ProviderTimeout,
		systemPrompt: prompt,
		generation:   opts.Generation,
		logger:       logger,
	}
}

// Transcribe распознает речь в аудио
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	s.observe(ctx, models.UsageRecord{
		Operation:  models.OperationTranscribe,
		AudioBytes: len(audio),
		Characters: len(text),
	}, start, err)
	if err != nil {
		s.logger.Error("ошибка распознавания речи", zap.Error(err), zap.Int("audio_size", len(audio)))
		return "", wrapProviderError(ErrTranscriptionFailed, err)
	}

	s.logger.Info("речь распознана",
		zap.Int("audio_size", len(audio)),
		zap.Int("text_length", len(text)))
	return text, nil
}

// Synthesize преобразует текст в аудио выбранным голосом
func (s *Service) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	audio, err := s.tts.SynthesizeText(ctx, text, voiceID)
	if err == nil && len(audio) == 0 {
		err = errors.New("провайдер вернул пустое аудио")
	}
	s.observe(ctx, models.UsageRecord{
		Operation:  models.OperationSynthesize,
		VoiceID:    voiceID,
		Characters: len(text),
		AudioBytes: len(audio),
	}, start, err)
	if err != nil {
		s.logger.Error("ошибка синтеза речи",
			zap.Error(err),
			zap.String("voice_id", voiceID),
			zap.Int("text_length", len(text)))
		return nil, wrapProviderError(ErrSynthesisFailed, err)
	}

	if s.metrics != nil {
		s.metrics.RecordAudioBytes(len(audio))
	}

	s.logger.Info("🎵 речь синтезирована",
		zap.String("voice_id", voiceID),
		zap.Int("text_length", len(text)),
		zap.Int("audio_size", len(audio)))
	return audio, nil
}

// ListVoices возвращает голоса провайдера
func (s *Service) ListVoices(ctx context.Context) ([]models.Voice, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	voices, err := s.tts.ListVoices(ctx)
	s.observe(ctx, models.UsageRecord{Operation: models.OperationVoices}, start, err)
	if err != nil {
		s.logger.Error("ошибка получения списка голосов", zap.Error(err))
		return nil, wrapProviderError(ErrVoiceListFailed, err)
	}

	if voices == nil {
		voices = []models.Voice{}
	}
	return voices, nil
}

// Converse возвращает ответ ассистента на реплику пользователя
func (s *Service) Converse(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrNoMessage
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	messages := []ai.Message{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: message},
	}

	start := time.Now()
	resp, err := s.ai.GenerateResponse(ctx, messages, s.generation)
	if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
		err = errors.New("пустой ответ от диалогового бэкенда")
	}
	record := models.UsageRecord{Operation: models.OperationConverse, Characters: len(message)}
	s.observe(ctx, record, start, err)
	if err != nil {
		s.logger.Error("ошибка обработки диалога",
			zap.Error(err),
			zap.String("provider", s.ai.GetName()))
		return "", wrapProviderError(ErrConversationFailed, err)
	}

	s.logger.Info("ответ ассистента получен",
		zap.String("provider", s.ai.GetName()),
		zap.Int("response_length", len(resp.Content)))
	return resp.Content, nil
}

// withTimeout ограничивает время обращения к провайдеру
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// observe обновляет метрики и журнал использования
func (s *Service) observe(ctx context.Context, record models.UsageRecord, start time.Time, err error) {
	elapsed := time.Since(start)
	record.Status = statusOf(err)
	record.DurationMS = elapsed.Milliseconds()

	if s.metrics != nil {
		s.metrics.RecordProviderCall(record.Operation, record.Status, elapsed.Seconds())
	}

	if s.usage == nil {
		return
	}

	// Журнал пишется даже если контекст запроса уже истек
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.usage.Create(writeCtx, &record); err != nil {
		s.logger.Warn("не удалось записать журнал использования",
			zap.Error(err),
			zap.String("operation", record.Operation))
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return models.StatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return models.StatusTimeout
	default:
		return models.StatusFailed
	}
}

