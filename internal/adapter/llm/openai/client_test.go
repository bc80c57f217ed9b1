package openai_test

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
	"github.com/mdrews/pentestgen/internal/adapter/llm/openai"
)

func fastRetry() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func successResponse(content string) openai.ChatCompletionResponse {
	var resp openai.ChatCompletionResponse
	resp.Model = "gpt-4o"
	resp.Choices = []openai.Choice{
		{Message: openai.Message{Role: "assistant", Content: content}, FinishReason: "stop"},
	}
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 20
	return resp
}

func TestCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(successResponse("hello"))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-test", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, 10, resp.TokensIn)
	assert.Equal(t, 20, resp.TokensOut)
}

func TestCall_JSONFormatAndSeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		format, ok := body["response_format"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])
		assert.Equal(t, float64(42), body["seed"])

		_ = json.NewEncoder(w).Encode(successResponse(`{"ok": true}`))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-test", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	seed := uint64(42)
	_, err := client.Call(context.Background(), "prompt", openai.CallOptions{
		Seed:       &seed,
		JSONFormat: true,
	})
	require.NoError(t, err)
}

func TestCall_SystemPromptPrepended(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You are terse.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(successResponse("ok"))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-test", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())
	client.SetSystemPrompt("You are terse.")

	_, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.NoError(t, err)
}

func TestCall_ExtraParamsMergedAtTopLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, 0.9, body["top_p"])
		// Struct fields win over extras on collision.
		assert.Equal(t, "gpt-4o", body["model"])

		_ = json.NewEncoder(w).Encode(successResponse("ok"))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-test", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())
	client.SetExtraParams(map[string]interface{}{
		"top_p": 0.9,
		"model": "should-not-win",
	})

	_, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.NoError(t, err)
}

func TestCall_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth"}}`))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-bad", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Contains(t, httpErr.Message, "invalid api key")
}

func TestCall_RateLimitRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(successResponse("recovered"))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("sk-test", "gpt-4o")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, calls)
}

func TestCall_CustomProviderNameInErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.NewHTTPClient("key", "local-model")
	client.SetBaseURL(server.URL)
	client.SetProviderName("lab-vllm")
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", openai.CallOptions{})
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "lab-vllm", httpErr.Provider)
}
