package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voice-assistant/internal/audio"
	"voice-assistant/internal/client"
	"voice-assistant/internal/recorder"
	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

// State состояние взаимодействия с пользователем
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StatePlaying    State = "playing"
)

// Сообщения об ошибках, которые видит пользователь
const (
	errNoAudio             = "No audio recorded"
	errTranscriptionFailed = "Failed to transcribe audio"
	errConversationFailed  = "Failed to process conversation"
	errSynthesisFailed     = "Failed to generate speech"
	errPlaybackFailed      = "Failed to play audio"
	errUnexpected          = "Unexpected error"
)

const recordingFilename = "recording.webm"

var (
	// ErrBusy повторный вход во время активного хода
	ErrBusy = errors.New("turn already in progress")
	// ErrNotRecording остановка без активной записи
	ErrNotRecording = errors.New("not recording")
)

// Gateway операции голосового шлюза, нужные для одного хода
type Gateway interface {
	SpeechToText(ctx context.Context, audio []byte, filename string) (*client.SpeechToTextResponse, error)
	ProcessConversation(ctx context.Context, message string) (*client.ConversationResponse, error)
	TextToSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Recorder управление записью
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (*recorder.Recording, error)
}

// Player воспроизведение ответа
type Player interface {
	Play(ctx context.Context, data []byte, mimeType string) error
}

// Orchestrator ведет ход idle → recording → processing → playing → idle.
// Этапы выполняются строго последовательно.
type Orchestrator struct {
	gateway  Gateway
	recorder Recorder
	player   Player
	voiceID  string
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	starting  bool // идет открытие устройства, state еще idle
	messages  []models.Message
	lastError string
	observers []func(State)
}

// New создает оркестратор в состоянии idle
func New(gateway Gateway, rec Recorder, player Player, voiceID string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		recorder: rec,
		player:   player,
		voiceID:  voiceID,
		logger:   logger,
		state:    StateIdle,
	}
}

// OnStateChange подписывает наблюдателя на смену состояния
func (o *Orchestrator) OnStateChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// State возвращает текущее состояние
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Messages возвращает копию истории сообщений
func (o *Orchestrator) Messages() []models.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Error возвращает последнюю ошибку для показа пользователю
func (o *Orchestrator) Error() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// DismissError скрывает сообщение об ошибке
func (o *Orchestrator) DismissError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastError = ""
}

// StartRecording начинает запись. В recording переходит только после открытия устройства.
func (o *Orchestrator) StartRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle || o.starting {
		o.mu.Unlock()
		return ErrBusy
	}
	o.starting = true
	o.mu.Unlock()

	if err := o.recorder.Start(ctx); err != nil {
		o.logger.Warn("не удалось начать запись", zap.Error(err))
		o.mu.Lock()
		o.starting = false
		o.lastError = err.Error()
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	o.starting = false
	o.lastError = ""
	o.state = StateRecording
	observers := o.snapshotObservers()
	o.mu.Unlock()

	o.notify(observers, StateRecording)
	return nil
}

// StopAndProcess останавливает запись и проводит ход до конца.
// Возвращает ошибку хода; состояние в любом случае возвращается в idle.
func (o *Orchestrator) StopAndProcess(ctx context.Context) (err error) {
	if !o.transition(StateRecording, StateProcessing) {
		return ErrNotRecording
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("паника во время обработки хода", zap.Any("panic", r))
			err = o.fail(errUnexpected, fmt.Errorf("panic: %v", r))
		}
	}()

	return o.process(ctx)
}

func (o *Orchestrator) process(ctx context.Context) error {
	rec, err := o.recorder.Stop()
	if err != nil {
		if errors.Is(err, audio.ErrDeviceUnavailable) {
			return o.fail(audio.ErrDeviceUnavailable.Error(), err)
		}
		return o.fail(errNoAudio, err)
	}
	if rec == nil || len(rec.Data) == 0 {
		return o.fail(errNoAudio, nil)
	}

	stt, err := o.gateway.SpeechToText(ctx, rec.Data, recordingFilename)
	if err != nil {
		return o.fail(errTranscriptionFailed, err)
	}
	if !stt.Success || stt.Transcription == "" {
		msg := stt.Error
		if msg == "" {
			msg = errTranscriptionFailed
		}
		return o.fail(msg, nil)
	}
	o.appendMessage(models.RoleUser, stt.Transcription)

	conv, err := o.gateway.ProcessConversation(ctx, stt.Transcription)
	if err != nil {
		return o.fail(errConversationFailed, err)
	}
	if !conv.Success || conv.Response == "" {
		msg := conv.Error
		if msg == "" {
			msg = errConversationFailed
		}
		return o.fail(msg, nil)
	}
	o.appendMessage(models.RoleAssistant, conv.Response)

	audio, err := o.gateway.TextToSpeech(ctx, conv.Response, o.voiceID)
	if err != nil {
		return o.fail(errSynthesisFailed, err)
	}
	if len(audio) == 0 {
		o.logger.Info("синтез вернул пустое аудио, воспроизведение пропущено")
		o.setState(StateIdle)
		return nil
	}

	o.setState(StatePlaying)
	if err := o.player.Play(ctx, audio, "audio/mpeg"); err != nil {
		return o.fail(errPlaybackFailed, err)
	}

	o.setState(StateIdle)
	return nil
}

// fail фиксирует ошибку хода и возвращает в idle
func (o *Orchestrator) fail(message string, cause error) error {
	o.logger.Warn("ход прерван",
		zap.String("reason", message),
		zap.Error(cause))

	o.setError(message)
	o.setState(StateIdle)

	if cause != nil {
		return fmt.Errorf("%s: %w", message, cause)
	}
	return errors.New(message)
}

func (o *Orchestrator) setError(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastError = message
}

func (o *Orchestrator) appendMessage(role, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, models.NewMessage(role, text))
}

// transition атомарно переводит from → to и уведомляет наблюдателей
func (o *Orchestrator) transition(from, to State) bool {
	o.mu.Lock()
	if o.state != from {
		o.mu.Unlock()
		return false
	}
	o.state = to
	observers := o.snapshotObservers()
	o.mu.Unlock()

	o.notify(observers, to)
	return true
}

func (o *Orchestrator) snapshotObservers() []func(State) {
	observers := make([]func(State), len(o.observers))
	copy(observers, o.observers)
	return observers
}

func (o *Orchestrator) notify(observers []func(State), s State) {
	o.logger.Debug("смена состояния", zap.String("state", string(s)))
	for _, fn := range observers {
		fn(s)
	}
}

// setState меняет состояние и уведомляет наблюдателей вне блокировки
func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	if o.state == s {
		o.mu.Unlock()
		return
	}
	o.state = s
	observers := o.snapshotObservers()
	o.mu.Unlock()

	o.notify(observers, s)
}
