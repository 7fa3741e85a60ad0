package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(baseURL string) *ElevenLabsService {
	return NewElevenLabsService(config.ElevenLabsConfig{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		ModelID:         "eleven_multilingual_v2",
		DefaultVoiceID:  "pNInz6obpgDQGcFmaJgB",
		OutputFormat:    "mp3_44100_128",
		Stability:       0.1,
		SimilarityBoost: 0.3,
		Style:           0.2,
	}, zap.NewNop())
}

func TestSynthesizeText_SendsTuningAndDefaultVoice(t *testing.T) {
	var gotPath, gotKey, gotFormat string
	var gotBody synthesizeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotFormat = r.URL.Query().Get("output_format")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	audio, err := newTestService(srv.URL).SynthesizeText(context.Background(), "hello", "")
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3-audio"), audio)
	assert.Equal(t, "/v1/text-to-speech/pNInz6obpgDQGcFmaJgB/stream", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "mp3_44100_128", gotFormat)
	assert.Equal(t, "hello", gotBody.Text)
	assert.Equal(t, "eleven_multilingual_v2", gotBody.ModelID)
	assert.Equal(t, 0.1, gotBody.VoiceSettings.Stability)
	assert.Equal(t, 0.3, gotBody.VoiceSettings.SimilarityBoost)
	assert.Equal(t, 0.2, gotBody.VoiceSettings.Style)
}

func TestSynthesizeText_CustomVoice(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).SynthesizeText(context.Background(), "hello", "voice-42")
	require.NoError(t, err)
	assert.Equal(t, "/v1/text-to-speech/voice-42/stream", gotPath)
}

func TestSynthesizeText_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid_api_key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).SynthesizeText(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSynthesizeText_EmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).SynthesizeText(context.Background(), "hello", "")
	assert.Error(t, err)
}

func TestListVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Adam","category":"premade"},{"voice_id":"v2","name":"Rachel"}]}`))
	}))
	defer srv.Close()

	voices, err := newTestService(srv.URL).ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "v1", voices[0].VoiceID)
	assert.Equal(t, "Adam", voices[0].Name)
	assert.Equal(t, "premade", voices[0].Category)
}

func TestListVoices_KeepsProviderFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Adam","settings":{"stability":0.5},"samples":null,"high_quality_base_model_ids":["eleven_multilingual_v2"]}]}`))
	}))
	defer srv.Close()

	voices, err := newTestService(srv.URL).ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "v1", voices[0].VoiceID)

	out, err := json.Marshal(voices)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"voice_id":"v1","name":"Adam","settings":{"stability":0.5},"samples":null,"high_quality_base_model_ids":["eleven_multilingual_v2"]}]`,
		string(out))
}

func TestListVoices_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestService(srv.URL).ListVoices(context.Background())
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	s := newTestService("http://unused")

	assert.Equal(t, s.CacheKey("hello", ""), s.CacheKey("hello", "pNInz6obpgDQGcFmaJgB"))
	assert.NotEqual(t, s.CacheKey("hello", ""), s.CacheKey("hello", "other"))
	assert.NotEqual(t, s.CacheKey("hello", ""), s.CacheKey("hello!", ""))
	assert.Contains(t, s.CacheKey("hello", ""), "tts:")
}
