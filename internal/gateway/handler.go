package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"voice-assistant/internal/voice"
	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// Сообщения об ошибках, которые видит клиент
const (
	msgNoAudio             = "No audio file provided"
	msgNoText              = "No text provided"
	msgNoMessage           = "No message provided"
	msgInvalidJSON         = "Invalid JSON body"
	msgProcessAudioFailed  = "Failed to process audio"
	msgGenerateFailed      = "Failed to generate speech"
	msgProviderTimeout     = "Speech provider timed out"
	msgFetchVoicesFailed   = "Failed to fetch voices"
	msgConversationFailed  = "Failed to process conversation"
	defaultUploadFilename  = "recording.webm"
	audioFormField         = "audio"
	synthesizedAudioHeader = `inline; filename="speech.mp3"`
)

// VoiceService операции голосового шлюза
type VoiceService interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
	ListVoices(ctx context.Context) ([]models.Voice, error)
	Converse(ctx context.Context, message string) (string, error)
}

// Handler обрабатывает HTTP запросы /voice/*
type Handler struct {
	service        VoiceService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler создает обработчик голосовых запросов
func NewHandler(service VoiceService, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type transcriptionResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
}

type voicesResponse struct {
	Success bool           `json:"success"`
	Voices  []models.Voice `json:"voices"`
}

type conversationResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
}

type conversationRequest struct {
	Message string `json:"message"`
}

// SpeechToText распознает загруженное аудио (multipart поле "audio")
func (h *Handler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Warn("некорректная multipart форма", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgNoAudio)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(audioFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoAudio)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("ошибка чтения аудио", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgNoAudio)
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = defaultUploadFilename
	}

	h.logger.Info("обработка запроса распознавания речи",
		zap.String("filename", filename),
		zap.Int("audio_size", len(audio)))

	text, err := h.service.Transcribe(r.Context(), audio, filename)
	if err != nil {
		if voice.IsValidation(err) {
			writeError(w, http.StatusBadRequest, msgNoAudio)
			return
		}
		writeJSON(w, http.StatusOK, errorResponse{Error: msgProcessAudioFailed})
		return
	}

	writeJSON(w, http.StatusOK, transcriptionResponse{Success: true, Transcription: text})
}

// TextToSpeech синтезирует речь и отдает сырое аудио
func (h *Handler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	h.logger.Info("обработка запроса синтеза речи",
		zap.Int("text_length", len(req.Text)),
		zap.String("voice_id", req.VoiceID))

	audio, err := h.service.Synthesize(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		switch {
		case voice.IsValidation(err):
			writeError(w, http.StatusBadRequest, msgNoText)
		case errors.Is(err, voice.ErrProviderTimeout):
			writeError(w, http.StatusGatewayTimeout, msgProviderTimeout)
		default:
			writeError(w, http.StatusInternalServerError, msgGenerateFailed)
		}
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Content-Disposition", synthesizedAudioHeader)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Warn("ошибка отправки аудио клиенту", zap.Error(err))
	}
}

// Voices возвращает список голосов провайдера
func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	voices, err := h.service.ListVoices(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse{Error: msgFetchVoicesFailed})
		return
	}

	writeJSON(w, http.StatusOK, voicesResponse{Success: true, Voices: voices})
}

// ProcessConversation возвращает ответ ассистента на реплику
func (h *Handler) ProcessConversation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	reply, err := h.service.Converse(r.Context(), req.Message)
	if err != nil {
		if voice.IsValidation(err) {
			writeError(w, http.StatusBadRequest, msgNoMessage)
			return
		}
		writeJSON(w, http.StatusOK, errorResponse{Error: msgConversationFailed})
		return
	}

	writeJSON(w, http.StatusOK, conversationResponse{Success: true, Response: reply})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
