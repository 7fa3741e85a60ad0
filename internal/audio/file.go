package audio

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"
)

// FileDevice отдает заранее записанный файл вместо микрофона
type FileDevice struct {
	Path string
}

// Open открывает файл. Отсутствующий файл означает недоступность устройства.
func (d FileDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &fileStream{file: f, mimeType: mimeTypeOf(d.Path)}, nil
}

type fileStream struct {
	file     *os.File
	mimeType string
	once     sync.Once
	err      error
}

func (s *fileStream) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

func (s *fileStream) MimeType() string {
	return s.mimeType
}

func (s *fileStream) Close() error {
	s.once.Do(func() { s.err = s.file.Close() })
	return s.err
}

func mimeTypeOf(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".webm":
		return WebMOpusMimeType
	case "":
		return "application/octet-stream"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
