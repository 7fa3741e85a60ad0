package whisper

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

	"go.uber.org/zap"
)

// Client представляет клиент для работы с Whisper ASR API
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает новый клиент Whisper
func NewClient(apiURL string, logger *zap.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // Увеличиваем таймаут для обработки аудио
		},
		logger: logger,
	}
}

// TranscribeResponse представляет ответ от Whisper API
type TranscribeResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe распознает речь и возвращает только текст
func (c *Client) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	resp, err := c.TranscribeBytes(ctx, audioData, filename)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// TranscribeBytes транскрибирует аудио данные из байтов
func (c *Client) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (*TranscribeResponse, error) {
	if filename == "" {
		filename = "recording.webm"
	}

	// Создаем multipart запрос
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("audio_file", filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания формы: %w", err)
	}

	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка завершения формы: %w", err)
	}

	params := []string{
		"output=json",
		"task=transcribe",
		"encode=true", // webm/opus из браузера нужно перекодировать через ffmpeg
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/asr?"+strings.Join(params, "&"), &requestBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("отправка запроса на транскрибацию байтов",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
		zap.String("params", strings.Join(params, "&")))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка API (статус %d): %s", resp.StatusCode, string(body))
	}

	// Проверяем Content-Type, но разрешаем text/plain если это JSON
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") && !strings.Contains(contentType, "text/plain") {
		return nil, fmt.Errorf("неожиданный Content-Type: %s", contentType)
	}

	var response TranscribeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	c.logger.Info("транскрибация байтов завершена",
		zap.String("filename", filename),
		zap.Int("text_length", len(response.Text)),
		zap.Float64("duration", response.Duration))

	return &response, nil
}

// HealthCheck проверяет доступность Whisper API
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("нездоровый статус API: %d", resp.StatusCode)
	}

	return nil
}
