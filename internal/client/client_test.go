package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSpeechToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voice/speech-to-text", r.URL.Path)

		file, header, err := r.FormFile("audio")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "recording.webm", header.Filename)
		assert.Equal(t, "webm", string(data))

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "transcription": "hello"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, zap.NewNop())
	resp, err := c.SpeechToText(context.Background(), []byte("webm"), "")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Transcription)
}

func TestProcessConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.Equal(t, "hi", body["message"])
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "response": "hey"})
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second, zap.NewNop()).ProcessConversation(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hey", resp.Response)
}

func TestTextToSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		if body["text"] == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":"Failed to generate speech"}`))
			return
		}
		assert.Equal(t, "voice-1", body["voiceId"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop())

	data, err := c.TextToSpeech(context.Background(), "hello", "voice-1")
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))

	_, err = c.TextToSpeech(context.Background(), "fail", "voice-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestVoices_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, zap.NewNop()).Voices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
