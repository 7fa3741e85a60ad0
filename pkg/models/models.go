package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Роли сообщений в диалоге
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message представляет реплику в диалоге текущей сессии
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" или "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создает сообщение с новым идентификатором
func NewMessage(role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Voice описывает голос, доступный у провайдера синтеза.
// Голос, прочитанный из JSON, сериализуется обратно в исходном виде со всеми полями провайдера.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`

	raw json.RawMessage
}

type plainVoice Voice

// UnmarshalJSON разбирает известные поля и сохраняет исходный объект
func (v *Voice) UnmarshalJSON(data []byte) error {
	var p plainVoice
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Voice(p)
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON отдает исходный объект провайдера, если он есть
func (v Voice) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}
	return json.Marshal(plainVoice(v))
}

// VoiceSettings параметры тонкой настройки голоса
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

// Операции шлюза, попадающие в журнал использования
const (
	OperationTranscribe = "transcribe"
	OperationSynthesize = "synthesize"
	OperationConverse   = "converse"
	OperationVoices     = "voices"
)

// Статусы операций
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// UsageRecord запись журнала обращений к шлюзу
type UsageRecord struct {
	ID         int64     `json:"id" db:"id"`
	Operation  string    `json:"operation" db:"operation"`
	VoiceID    string    `json:"voice_id" db:"voice_id"`
	Characters int       `json:"characters" db:"characters"`
	AudioBytes int       `json:"audio_bytes" db:"audio_bytes"`
	Status     string    `json:"status" db:"status"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// UsageStats агрегированная статистика по операции
type UsageStats struct {
	Operation  string `json:"operation" db:"operation"`
	Total      int64  `json:"total" db:"total"`
	Failed     int64  `json:"failed" db:"failed"`
	Characters int64  `json:"characters" db:"characters"`
	AudioBytes int64  `json:"audio_bytes" db:"audio_bytes"`
}
