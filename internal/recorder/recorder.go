package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"voice-assistant/internal/audio"

	"go.uber.org/zap"
)

// ErrAlreadyRecording попытка начать запись во время активной сессии
var ErrAlreadyRecording = errors.New("already recording")

const readChunkSize = 32 * 1024

// Recording итог одной сессии записи
type Recording struct {
	Data     []byte
	MimeType string
}

// Controller управляет жизненным циклом захвата звука.
// Одновременно открыта не более чем одна сессия.
type Controller struct {
	device      audio.Device
	constraints audio.Constraints
	logger      *zap.Logger

	mu      sync.Mutex
	session *session
}

type session struct {
	stream    audio.Stream
	fragments [][]byte
	readErr   error
	readDone  chan struct{}
}

// NewController создает контроллер записи
func NewController(device audio.Device, constraints audio.Constraints, logger *zap.Logger) *Controller {
	return &Controller{
		device:      device,
		constraints: constraints,
		logger:      logger,
	}
}

// Start открывает устройство и начинает буферизацию фрагментов
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return ErrAlreadyRecording
	}

	stream, err := c.device.Open(ctx, c.constraints)
	if err != nil {
		if !errors.Is(err, audio.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
		}
		c.logger.Warn("не удалось открыть устройство записи", zap.Error(err))
		return err
	}

	s := &session{stream: stream, readDone: make(chan struct{})}
	go s.read()
	c.session = s

	c.logger.Info("запись начата", zap.String("mime_type", stream.MimeType()))
	return nil
}

// read накапливает фрагменты до конца потока
func (s *session) read() {
	defer close(s.readDone)

	buf := make([]byte, readChunkSize)
	for {
		n, err := s.stream.Read(buf)
		if n > 0 {
			fragment := make([]byte, n)
			copy(fragment, buf[:n])
			s.fragments = append(s.fragments, fragment)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.readErr = err
			}
			return
		}
	}
}

// Stop завершает запись, освобождает устройство и возвращает аудио.
// Без активной сессии возвращает (nil, nil).
func (c *Controller) Stop() (*Recording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return nil, nil
	}
	c.session = nil

	closeErr := s.stream.Close()
	<-s.readDone

	data := bytes.Join(s.fragments, nil)

	if closeErr != nil {
		c.logger.Warn("ошибка освобождения устройства записи", zap.Error(closeErr))
	}
	if s.readErr != nil && len(data) == 0 {
		return nil, fmt.Errorf("ошибка чтения аудио: %w", s.readErr)
	}

	c.logger.Info("запись остановлена",
		zap.Int("fragments", len(s.fragments)),
		zap.Int("audio_size", len(data)))

	return &Recording{Data: data, MimeType: s.stream.MimeType()}, nil
}

// IsRecording сообщает, идет ли запись
func (c *Controller) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Close освобождает устройство, если запись не была остановлена
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return nil
	}
	c.session = nil

	err := s.stream.Close()
	<-s.readDone
	c.logger.Info("сессия записи прервана")
	return err
}
