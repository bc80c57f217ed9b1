package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/adapter/llm/ollama"
)

func fastRetry() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollama.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		assert.False(t, req.Stream)
		assert.NotEmpty(t, req.Prompt)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{
			Model:           "llama3.1",
			Response:        "generated text",
			Done:            true,
			PromptEvalCount: 50,
			EvalCount:       120,
		})
	}))
	defer server.Close()

	client := ollama.NewHTTPClient(server.URL, "llama3.1")
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "test prompt", ollama.CallOptions{})
	require.NoError(t, err)

	assert.Equal(t, "generated text", resp.Text)
	assert.Equal(t, "llama3.1", resp.Model)
	assert.Equal(t, 50, resp.TokensIn)
	assert.Equal(t, 120, resp.TokensOut)
}

func TestCall_SendsSeedAndJSONFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "json", req.Format)
		require.NotNil(t, req.Options)
		assert.Equal(t, float64(42), req.Options["seed"])
		assert.Equal(t, 0.7, req.Options["temperature"])

		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{
			Model:    "llama3.1",
			Response: `{"ok": true}`,
			Done:     true,
		})
	}))
	defer server.Close()

	client := ollama.NewHTTPClient(server.URL, "llama3.1")
	client.SetRetryConfig(fastRetry())

	seed := uint64(42)
	_, err := client.Call(context.Background(), "prompt", ollama.CallOptions{
		Temperature: 0.7,
		Seed:        &seed,
		JSONFormat:  true,
	})
	require.NoError(t, err)
}

func TestCall_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollama.ErrorResponse{Error: "model 'missing' not found"})
	}))
	defer server.Close()

	client := ollama.NewHTTPClient(server.URL, "missing")
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", ollama.CallOptions{})
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeModelNotFound, httpErr.Type)
	assert.Contains(t, httpErr.Message, "ollama pull missing")
}

func TestCall_IncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{
			Model:    "llama3.1",
			Response: "partial",
			Done:     false,
		})
	}))
	defer server.Close()

	client := ollama.NewHTTPClient(server.URL, "llama3.1")
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", ollama.CallOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestCall_RetriesServiceUnavailable(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{
			Model:    "llama3.1",
			Response: "recovered",
			Done:     true,
		})
	}))
	defer server.Close()

	client := ollama.NewHTTPClient(server.URL, "llama3.1")
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", ollama.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, calls)
}
