package anthropic_test

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

	"github.com/mdrews/pentestgen/internal/adapter/llm/anthropic"
	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
)

func fastRetry() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func messagesResponse(blocks ...anthropic.ContentBlock) anthropic.MessagesResponse {
	var resp anthropic.MessagesResponse
	resp.Model = "claude-sonnet-4"
	resp.Content = blocks
	resp.StopReason = "end_turn"
	resp.Usage.InputTokens = 30
	resp.Usage.OutputTokens = 60
	return resp
}

func TestCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropic.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Positive(t, req.MaxTokens)

		_ = json.NewEncoder(w).Encode(messagesResponse(
			anthropic.ContentBlock{Type: "text", Text: "hello"},
		))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("sk-ant-test", "claude-sonnet-4")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "claude-sonnet-4", resp.Model)
	assert.Equal(t, 30, resp.TokensIn)
	assert.Equal(t, 60, resp.TokensOut)
}

func TestCall_ConcatenatesTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(messagesResponse(
			anthropic.ContentBlock{Type: "text", Text: "first "},
			anthropic.ContentBlock{Type: "tool_use"},
			anthropic.ContentBlock{Type: "text", Text: "second"},
		))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("key", "claude-sonnet-4")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first second", resp.Text)
}

func TestCall_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("bad-key", "claude-sonnet-4")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.Error(t, err)

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.Contains(t, httpErr.Message, "invalid x-api-key")
}

func TestCall_OverloadedRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(529)
			return
		}
		_ = json.NewEncoder(w).Encode(messagesResponse(
			anthropic.ContentBlock{Type: "text", Text: "recovered"},
		))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("key", "claude-sonnet-4")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	resp, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, calls)
}

func TestCall_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(messagesResponse())
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("key", "claude-sonnet-4")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.Call(context.Background(), "prompt", anthropic.CallOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}
