package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 2048, req.Options.NumPredict)
		assert.InDelta(t, 0.1, req.Options.Temperature, 1e-9)
		assert.InDelta(t, 0.9, req.Options.TopP, 1e-9)
		assert.Equal(t, []string{"Question:"}, req.Options.Stop)

		json.NewEncoder(w).Encode(generateResponse{ //nolint:errcheck
			Response: "Nairobi is the capital of Kenya.",
			Done:     true,
		})
	}))
	defer server.Close()

	s := NewLLMService(Config{BaseURL: server.URL})

	got, err := s.Generate(context.Background(), "What is the capital of Kenya?", driven.GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0.1,
		TopP:        0.9,
		Stop:        []string{"Question:"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nairobi is the capital of Kenya.", got)
}

func TestGenerate_OmitsOptionsWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.Options)

		json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true}) //nolint:errcheck
	}))
	defer server.Close()

	s := NewLLMService(Config{BaseURL: server.URL})

	_, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewLLMService(Config{BaseURL: server.URL})

	_, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	s := NewLLMService(Config{BaseURL: server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Generate(ctx, "prompt", driven.GenerateOptions{})
	assert.Error(t, err)
}

func TestLLMPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewLLMService(Config{BaseURL: server.URL})
	assert.NoError(t, s.Ping(context.Background()))
}
