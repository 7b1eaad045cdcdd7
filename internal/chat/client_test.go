package chat_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futenglish/speech-service/internal/chat"
	"github.com/futenglish/speech-service/internal/session"
)

func TestSystemPromptIncludesProfile(t *testing.T) {
	t.Parallel()

	sess := session.Session{
		UserID:      7,
		Name:        "Carlos",
		Position:    "Goleiro",
		Level:       "Iniciante",
		LessonIndex: 1,
	}

	prompt := chat.SystemPrompt(sess)

	assert.Contains(t, prompt, "Carlos")
	assert.Contains(t, prompt, "Goleiro")
	assert.Contains(t, prompt, "Iniciante")
	// Lesson 1 exists, so its context is appended.
	assert.Contains(t, prompt, "Goalkeeper")
}

func TestSystemPromptDefaultsForEmptyProfile(t *testing.T) {
	t.Parallel()

	prompt := chat.SystemPrompt(session.Session{UserID: 7})

	assert.Contains(t, prompt, "Amigo")
	assert.Contains(t, prompt, "Jogador")
	assert.Contains(t, prompt, "Intermediário")
}

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		response := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")

		err := json.NewEncoder(w).Encode(response)
		require.NoError(t, err)
	}
}

func TestGenerateReturnsReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(completionHandler(t, "  Boa pergunta! Escanteio em inglês é outra história. "))
	defer server.Close()

	client := chat.NewClient("test-key", server.URL+"/v1", "test-model")

	reply, err := client.Generate(t.Context(), "persona", "o que é escanteio?")
	require.NoError(t, err)
	assert.Equal(t, "Boa pergunta! Escanteio em inglês é outra história.", reply)
}

func TestGenerateEmptyReplyIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(completionHandler(t, "   "))
	defer server.Close()

	client := chat.NewClient("test-key", server.URL+"/v1", "test-model")

	_, err := client.Generate(t.Context(), "persona", "oi")
	require.ErrorIs(t, err, chat.ErrEmptyResponse)
}

func TestGenerateTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := chat.NewClient("test-key", server.URL+"/v1", "test-model")

	_, err := client.Generate(t.Context(), "persona", "oi")
	require.Error(t, err)
}
