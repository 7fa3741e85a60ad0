package voice

import (
	"context"
	"errors"
	"fmt"
)

// ErrValidation обозначает отсутствие обязательного входного параметра
var ErrValidation = errors.New("validation error")

var (
	ErrNoAudio   = fmt.Errorf("%w: no audio file provided", ErrValidation)
	ErrNoText    = fmt.Errorf("%w: no text provided", ErrValidation)
	ErrNoMessage = fmt.Errorf("%w: no message provided", ErrValidation)
)

// Ошибки провайдеров. Детали исходной ошибки остаются в цепочке для логов,
// наружу шлюз отдает только обобщенное сообщение.
var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrSynthesisFailed     = errors.New("synthesis failed")
	ErrVoiceListFailed     = errors.New("voice list failed")
	ErrConversationFailed  = errors.New("conversation failed")
	ErrProviderTimeout     = errors.New("provider timeout")
)

// wrapProviderError оборачивает ошибку провайдера в доменную
func wrapProviderError(kind error, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %v", kind, ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}

// IsValidation сообщает, вызвана ли ошибка некорректным вводом
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
