package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alchemorsel/planner/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "plan my week", req.Messages[1].Content)

		json.NewEncoder(w).Encode(ChatResponse{
			Model:   req.Model,
			Message: ChatMessage{Role: "assistant", Content: `{"name":"Plan"}`},
			Done:    true,
		})
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{OllamaHost: server.URL}, zap.NewNop())

	reply, err := client.Complete(context.Background(), "plan my week")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Plan"}`, reply)
}

func TestCompleteIncomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Done: false})
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{OllamaHost: server.URL}, zap.NewNop())

	_, err := client.Complete(context.Background(), "plan my week")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{OllamaHost: server.URL}, zap.NewNop())

	_, err := client.Complete(context.Background(), "plan my week")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.AIConfig{OllamaHost: server.URL}, zap.NewNop())
	require.NoError(t, client.HealthCheck(context.Background()))
}
