package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// FFplayPlayer воспроизводит аудио через ffplay без окна
type FFplayPlayer struct {
	path   string
	logger *zap.Logger
}

// NewFFplayPlayer создает плеер
func NewFFplayPlayer(path string, logger *zap.Logger) *FFplayPlayer {
	if path == "" {
		path = "ffplay"
	}
	return &FFplayPlayer{path: path, logger: logger}
}

// Play блокируется до окончания воспроизведения или отмены ctx
func (p *FFplayPlayer) Play(ctx context.Context, data []byte, mimeType string) error {
	if len(data) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.path,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0")
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.Debug("🎵 воспроизведение аудио",
		zap.Int("size", len(data)),
		zap.String("mime_type", mimeType))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ошибка воспроизведения аудио: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
