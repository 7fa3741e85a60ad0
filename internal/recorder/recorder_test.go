package recorder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"voice-assistant/internal/audio"
	"voice-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStream отдает заданные фрагменты и блокируется до Close
type fakeStream struct {
	chunks chan []byte
	closed chan struct{}
	once   sync.Once
	closes int
	mu     sync.Mutex
}

func newFakeStream(chunks ...string) *fakeStream {
	s := &fakeStream{
		chunks: make(chan []byte, len(chunks)),
		closed: make(chan struct{}),
	}
	for _, c := range chunks {
		s.chunks <- []byte(c)
	}
	return s
}

func (s *fakeStream) Read(p []byte) (int, error) {
	select {
	case c := <-s.chunks:
		return copy(p, c), nil
	case <-s.closed:
		select {
		case c := <-s.chunks:
			return copy(p, c), nil
		default:
			return 0, io.EOF
		}
	}
}

func (s *fakeStream) MimeType() string { return "audio/webm;codecs=opus" }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeDevice struct {
	stream      *fakeStream
	err         error
	opens       int
	constraints audio.Constraints
}

func (d *fakeDevice) Open(ctx context.Context, c audio.Constraints) (audio.Stream, error) {
	d.opens++
	d.constraints = c
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func TestController_StartStop(t *testing.T) {
	stream := newFakeStream("abc", "def")
	device := &fakeDevice{stream: stream}
	c := NewController(device, audio.DefaultConstraints(), zap.NewNop())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.IsRecording())
	assert.Equal(t, audio.DefaultConstraints(), device.constraints)

	rec, err := c.Stop()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "abcdef", string(rec.Data))
	assert.Equal(t, "audio/webm;codecs=opus", rec.MimeType)
	assert.False(t, c.IsRecording())
	assert.Equal(t, 1, stream.closes, "устройство должно быть освобождено")
}

func TestController_StopWithoutStart(t *testing.T) {
	c := NewController(&fakeDevice{}, audio.Constraints{}, zap.NewNop())

	rec, err := c.Stop()
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, c.IsRecording())
}

func TestController_AlreadyRecording(t *testing.T) {
	device := &fakeDevice{stream: newFakeStream()}
	c := NewController(device, audio.Constraints{}, zap.NewNop())

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRecording)
	assert.Equal(t, 1, device.opens)

	_, err := c.Stop()
	require.NoError(t, err)
}

func TestController_DeviceUnavailable(t *testing.T) {
	c := NewController(&fakeDevice{err: errors.New("permission denied")}, audio.Constraints{}, zap.NewNop())

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.False(t, c.IsRecording())
}

func TestController_FFmpegExitsOnStart(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("нужен /bin/sh")
	}
	script := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'No such device' >&2\nexit 1\n"), 0o755))

	device := audio.NewFFmpegDevice(config.AudioInputConfig{
		Format:     "pulse",
		Device:     "default",
		FFmpegPath: script,
	}, zap.NewNop())
	c := NewController(device, audio.DefaultConstraints(), zap.NewNop())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "No such device")
	assert.False(t, c.IsRecording())
}

func TestController_CloseReleasesDevice(t *testing.T) {
	stream := newFakeStream("abc")
	c := NewController(&fakeDevice{stream: stream}, audio.Constraints{}, zap.NewNop())

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Close())
	assert.Equal(t, 1, stream.closes)
	assert.False(t, c.IsRecording())

	rec, err := c.Stop()
	assert.NoError(t, err)
	assert.Nil(t, rec)

	assert.NoError(t, c.Close())
}
