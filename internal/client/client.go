package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// SpeechToTextResponse ответ /voice/speech-to-text
type SpeechToTextResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ConversationResponse ответ /voice/process-conversation
type ConversationResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VoicesResponse ответ /voice/voices
type VoicesResponse struct {
	Success bool           `json:"success"`
	Voices  []models.Voice `json:"voices,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Client HTTP клиент голосового шлюза
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New создает клиент шлюза
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SpeechToText отправляет запись на распознавание
func (c *Client) SpeechToText(ctx context.Context, audio []byte, filename string) (*SpeechToTextResponse, error) {
	if filename == "" {
		filename = "recording.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания формы: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка завершения формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voice/speech-to-text", &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("отправка записи на распознавание", zap.Int("size", len(audio)))

	var out SpeechToTextResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessConversation отправляет реплику пользователя
func (c *Client) ProcessConversation(ctx context.Context, message string) (*ConversationResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/voice/process-conversation", map[string]string{"message": message})
	if err != nil {
		return nil, err
	}

	var out ConversationResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TextToSpeech синтезирует речь. Пустой voiceID означает голос по умолчанию.
func (c *Client) TextToSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload := struct {
		Text    string `json:"text"`
		VoiceID string `json:"voiceId,omitempty"`
	}{Text: text, VoiceID: voiceID}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/voice/text-to-speech", payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}

	c.logger.Debug("получено синтезированное аудио",
		zap.Int("size", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")))
	return data, nil
}

// Voices возвращает доступные голоса
func (c *Client) Voices(ctx context.Context) (*VoicesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voice/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	var out VoicesResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON выполняет запрос и разбирает JSON ответ. Не-2xx статус считается ошибкой.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	return nil
}
