package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-assistant/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTTS struct {
	calls int
	audio []byte
	err   error
}

func (f *fakeTTS) SynthesizeText(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

func (f *fakeTTS) ListVoices(ctx context.Context) ([]models.Voice, error) {
	return []models.Voice{{VoiceID: "v1"}}, nil
}

type memoryCache struct {
	items   map[string][]byte
	getErr  error
	saveErr error
}

func (c *memoryCache) GetAudio(ctx context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.items[key]
	return data, ok, nil
}

func (c *memoryCache) SaveAudio(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.items[key] = data
	return nil
}

func keyFunc(text, voiceID string) string { return voiceID + "|" + text }

func TestCachedService_HitSkipsProvider(t *testing.T) {
	next := &fakeTTS{audio: []byte("fresh")}
	cache := &memoryCache{items: map[string][]byte{}}
	s := NewCachedService(next, cache, keyFunc, time.Hour, zap.NewNop())

	first, err := s.SynthesizeText(context.Background(), "hello", "v1")
	require.NoError(t, err)
	second, err := s.SynthesizeText(context.Background(), "hello", "v1")
	require.NoError(t, err)

	assert.Equal(t, []byte("fresh"), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
}

func TestCachedService_CacheErrorsFallThrough(t *testing.T) {
	next := &fakeTTS{audio: []byte("fresh")}
	cache := &memoryCache{items: map[string][]byte{}, getErr: errors.New("down"), saveErr: errors.New("down")}
	s := NewCachedService(next, cache, keyFunc, time.Hour, zap.NewNop())

	audio, err := s.SynthesizeText(context.Background(), "hello", "v1")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), audio)
}

func TestCachedService_ProviderErrorNotCached(t *testing.T) {
	next := &fakeTTS{err: errors.New("provider down")}
	cache := &memoryCache{items: map[string][]byte{}}
	s := NewCachedService(next, cache, keyFunc, time.Hour, zap.NewNop())

	_, err := s.SynthesizeText(context.Background(), "hello", "v1")
	assert.Error(t, err)
	assert.Empty(t, cache.items)
}

func TestCachedService_ListVoicesPassThrough(t *testing.T) {
	s := NewCachedService(&fakeTTS{}, &memoryCache{items: map[string][]byte{}}, keyFunc, time.Hour, zap.NewNop())

	voices, err := s.ListVoices(context.Background())
	require.NoError(t, err)
	assert.Len(t, voices, 1)
}
