package voice

import "context"

// PlaceholderTranscription текст, который возвращает заглушка распознавания
const PlaceholderTranscription = "Transcribed text placeholder"

// Transcriber преобразует записанную речь в текст
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// PlaceholderTranscriber не распознает речь и всегда возвращает фиксированный текст.
// Используется, пока не подключен настоящий бэкенд (TRANSCRIBER=whisper).
type PlaceholderTranscriber struct{}

// Transcribe возвращает PlaceholderTranscription независимо от входа
func (PlaceholderTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return PlaceholderTranscription, nil
}
