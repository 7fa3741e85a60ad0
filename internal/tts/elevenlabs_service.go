package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-assistant/internal/config"
	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// ElevenLabsService предоставляет синтез речи через ElevenLabs API
type ElevenLabsService struct {
	logger         *zap.Logger
	apiKey         string
	baseURL        string
	modelID        string
	defaultVoiceID string
	outputFormat   string
	settings       models.VoiceSettings
	httpClient     *http.Client
}

// NewElevenLabsService создает клиент ElevenLabs из неизменяемой конфигурации
func NewElevenLabsService(cfg config.ElevenLabsConfig, logger *zap.Logger) *ElevenLabsService {
	return &ElevenLabsService{
		logger:         logger,
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		modelID:        cfg.ModelID,
		defaultVoiceID: cfg.DefaultVoiceID,
		outputFormat:   cfg.OutputFormat,
		settings: models.VoiceSettings{
			Stability:       cfg.Stability,
			SimilarityBoost: cfg.SimilarityBoost,
			Style:           cfg.Style,
		},
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type synthesizeRequest struct {
	Text          string               `json:"text"`
	ModelID       string               `json:"model_id"`
	VoiceSettings models.VoiceSettings `json:"voice_settings"`
}

// SynthesizeText отправляет текст в ElevenLabs и собирает аудиопоток целиком
func (s *ElevenLabsService) SynthesizeText(ctx context.Context, text, voiceID string) ([]byte, error) {
	voiceID = s.resolveVoice(voiceID)

	payload, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       s.modelID,
		VoiceSettings: s.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", s.baseURL, url.PathEscape(voiceID))
	if s.outputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(s.outputFormat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	s.logger.Info("🎵 отправляем запрос к ElevenLabs",
		zap.String("voice_id", voiceID),
		zap.String("model_id", s.modelID),
		zap.Int("text_length", len(text)))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ElevenLabs вернул ошибку %d: %s", resp.StatusCode, string(body))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("ошибка чтения аудиопотока: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("ElevenLabs вернул пустой аудиопоток")
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.String("voice_id", voiceID),
		zap.Int("audio_size", buf.Len()))

	return buf.Bytes(), nil
}

type voicesResponse struct {
	Voices []models.Voice `json:"voices"`
}

// ListVoices получает список голосов аккаунта
func (s *ElevenLabsService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ElevenLabs вернул ошибку %d: %s", resp.StatusCode, string(body))
	}

	var parsed voicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	s.logger.Debug("получен список голосов", zap.Int("count", len(parsed.Voices)))

	return parsed.Voices, nil
}

// CacheKey строит ключ кеша из всех параметров, влияющих на результат синтеза
func (s *ElevenLabsService) CacheKey(text, voiceID string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%g|%g|%g|%s",
		s.resolveVoice(voiceID), s.modelID, s.outputFormat,
		s.settings.Stability, s.settings.SimilarityBoost, s.settings.Style, text)
	return "tts:" + hex.EncodeToString(h.Sum(nil))
}

func (s *ElevenLabsService) resolveVoice(voiceID string) string {
	if voiceID == "" {
		return s.defaultVoiceID
	}
	return voiceID
}
