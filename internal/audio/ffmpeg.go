package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voice-assistant/internal/config"

	"go.uber.org/zap"
)

// WebMOpusMimeType формат, в котором пишет FFmpegDevice
const WebMOpusMimeType = "audio/webm;codecs=opus"

const (
	stopTimeout = 5 * time.Second
	// Сколько ждать первых байт от ffmpeg, прежде чем считать устройство открытым
	defaultStartupWindow = 500 * time.Millisecond
)

// FFmpegDevice захватывает микрофон через ffmpeg и кодирует в webm/opus
type FFmpegDevice struct {
	cfg           config.AudioInputConfig
	startupWindow time.Duration
	logger        *zap.Logger
}

// NewFFmpegDevice создает устройство захвата
func NewFFmpegDevice(cfg config.AudioInputConfig, logger *zap.Logger) *FFmpegDevice {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &FFmpegDevice{cfg: cfg, startupWindow: defaultStartupWindow, logger: logger}
}

// Args собирает аргументы ffmpeg для указанных ограничений
func (d *FFmpegDevice) Args(c Constraints) []string {
	input := d.cfg.Device
	if c.EchoCancellation {
		if d.cfg.EchoCancelSource != "" {
			input = d.cfg.EchoCancelSource
		} else {
			d.logger.Warn("подавление эха запрошено, но ECHO_CANCEL_SOURCE не задан")
		}
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", d.cfg.Format,
		"-i", input,
		"-ac", "1",
	}

	var filters []string
	if c.NoiseSuppression {
		filters = append(filters, "afftdn")
	}
	if c.AutoGainControl {
		filters = append(filters, "dynaudnorm")
	}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}

	return append(args, "-c:a", "libopus", "-f", "webm", "pipe:1")
}

// Open запускает ffmpeg и ждет, пока он начнет писать аудио.
// Если ffmpeg завершился раньше (нет микрофона, нет доступа), устройство недоступно.
func (d *FFmpegDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if _, err := exec.LookPath(d.cfg.FFmpegPath); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg не найден: %v", ErrDeviceUnavailable, err)
	}

	args := d.Args(c)
	cmd := exec.Command(d.cfg.FFmpegPath, args...)

	pr, pw := io.Pipe()
	stderr := &limitedBuffer{max: 4096}
	started := make(chan struct{})
	cmd.Stdout = &firstWriteNotifier{w: pw, ch: started}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s := &ffmpegStream{
		cmd:    cmd,
		reader: pr,
		done:   make(chan struct{}),
		logger: d.logger,
	}

	go func() {
		err := cmd.Wait()
		if err != nil && !s.isStopping() {
			msg := strings.TrimSpace(stderr.String())
			pw.CloseWithError(fmt.Errorf("%w: %v: %s", ErrDeviceUnavailable, err, msg))
		} else {
			pw.Close()
		}
		close(s.done)
	}()

	select {
	case <-started:
	case <-time.After(d.startupWindow):
	case <-s.done:
		// ffmpeg уже завершился, stderr дописан
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg завершился до начала записи"
		}
		d.logger.Warn("ffmpeg завершился при открытии устройства", zap.String("stderr", msg))
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	}

	d.logger.Info("захват звука запущен",
		zap.String("format", d.cfg.Format),
		zap.Strings("args", args))

	return s, nil
}

// firstWriteNotifier закрывает ch при первой записи ffmpeg в stdout
type firstWriteNotifier struct {
	w    io.Writer
	ch   chan struct{}
	once sync.Once
}

func (n *firstWriteNotifier) Write(p []byte) (int, error) {
	n.once.Do(func() { close(n.ch) })
	return n.w.Write(p)
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	reader *io.PipeReader
	done   chan struct{}
	logger *zap.Logger

	mu       sync.Mutex
	stopping bool
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *ffmpegStream) MimeType() string {
	return WebMOpusMimeType
}

func (s *ffmpegStream) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Close посылает ffmpeg SIGINT, чтобы он дописал контейнер, и ждет выхода
func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	default:
	}

	if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("не удалось остановить ffmpeg сигналом", zap.Error(err))
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(stopTimeout):
		s.logger.Warn("ffmpeg не завершился вовремя, принудительная остановка")
		_ = s.cmd.Process.Kill()
		<-s.done
		return fmt.Errorf("ffmpeg остановлен принудительно")
	}
}

// limitedBuffer хранит начало stderr ffmpeg для сообщения об ошибке
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
