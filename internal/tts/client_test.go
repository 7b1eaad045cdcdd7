// Package tts_test tests the remote synthesis client and the engine.
package tts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futenglish/speech-service/internal/core"
	"github.com/futenglish/speech-service/internal/tts"
)

var testVoice = core.VoiceParams{
	LanguageCode: "pt-BR",
	VoiceName:    "pt-BR-Wavenet-B",
	Gender:       "MALE",
	SpeakingRate: 0.9,
}

func TestSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/synthesize", r.URL.Path)

		var req tts.SynthesisRequest

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bola", req.Text)
		assert.Equal(t, "pt-BR", req.LanguageCode)
		assert.Equal(t, "pt-BR-Wavenet-B", req.VoiceName)
		assert.Equal(t, "ogg_opus", req.Encoding)

		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("fake-ogg-bytes"))
	}))
	defer server.Close()

	client := tts.NewClient(server.URL, 5*time.Second, "ogg_opus")

	audio, err := client.Synthesize(context.Background(), "bola", testVoice)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-ogg-bytes"), audio)
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	t.Parallel()

	client := tts.NewClient("http://localhost:1", time.Second, "ogg_opus")

	_, err := client.Synthesize(context.Background(), "", testVoice)
	require.ErrorIs(t, err, tts.ErrTextEmpty)
}

func TestSynthesizeStructuredError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"voice not found","error_code":"VOICE_UNKNOWN"}`))
	}))
	defer server.Close()

	client := tts.NewClient(server.URL, time.Second, "ogg_opus")

	_, err := client.Synthesize(context.Background(), "bola", testVoice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice not found")
	assert.Contains(t, err.Error(), "VOICE_UNKNOWN")
}

func TestSynthesizeEmptyBodyIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/ogg")
	}))
	defer server.Close()

	client := tts.NewClient(server.URL, time.Second, "ogg_opus")

	_, err := client.Synthesize(context.Background(), "bola", testVoice)
	require.ErrorIs(t, err, tts.ErrEmptyAudio)
}

func TestSynthesizeWrongContentType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("not audio"))
	}))
	defer server.Close()

	client := tts.NewClient(server.URL, time.Second, "ogg_opus")

	_, err := client.Synthesize(context.Background(), "bola", testVoice)
	require.ErrorIs(t, err, tts.ErrWrongEncoding)
}

func TestSynthesizeTimeout(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()
	defer close(blocked)

	client := tts.NewClient(server.URL, time.Second, "ogg_opus")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Synthesize(ctx, "bola", testVoice)
	require.Error(t, err, "a timed-out call is an ordinary synthesis failure")
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := tts.NewClient(server.URL, time.Second, "ogg_opus")
	require.NoError(t, client.HealthCheck(context.Background()))
}
