package audio

import (
	"context"
	"errors"
	"io"
)

// ErrDeviceUnavailable устройство захвата недоступно: нет доступа или устройства
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// Constraints параметры обработки входного сигнала
type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultConstraints включает всю обработку сигнала
func DefaultConstraints() Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// Device источник звука, который можно открыть в эксклюзивном режиме
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream открытый захват звука. Read отдает фрагменты закодированного аудио
// до io.EOF, который наступает после Close.
type Stream interface {
	io.Reader
	MimeType() string
	// Close просит устройство завершить запись и освобождает его.
	// Блокируется до фактического освобождения.
	Close() error
}

// Player воспроизводит аудио до конца
type Player interface {
	Play(ctx context.Context, data []byte, mimeType string) error
}
