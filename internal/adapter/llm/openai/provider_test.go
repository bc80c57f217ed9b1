package openai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/adapter/llm/openai"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

type fakeClient struct {
	lastPrompt  string
	lastOptions openai.CallOptions
	response    *openai.APIResponse
	err         error
}

func (f *fakeClient) Call(ctx context.Context, prompt string, options openai.CallOptions) (*openai.APIResponse, error) {
	f.lastPrompt = prompt
	f.lastOptions = options
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestProviderComplete(t *testing.T) {
	client := &fakeClient{response: &openai.APIResponse{Text: "reply", Model: "gpt-4o-2024"}}
	provider := openai.NewProvider("gpt-4o", client)

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{
		Prompt:      "the prompt",
		Seed:        7,
		Temperature: 0.3,
		MaxTokens:   512,
		JSONOnly:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "gpt-4o-2024", resp.Model)
	assert.Equal(t, "reply", resp.Text)

	assert.Equal(t, "the prompt", client.lastPrompt)
	require.NotNil(t, client.lastOptions.Seed)
	assert.Equal(t, uint64(7), *client.lastOptions.Seed)
	assert.True(t, client.lastOptions.JSONFormat)
	assert.Equal(t, 512, client.lastOptions.MaxTokens)
}

func TestProviderCompleteModelFallback(t *testing.T) {
	client := &fakeClient{response: &openai.APIResponse{Text: "reply"}}
	provider := openai.NewProvider("gpt-4o", client)

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", resp.Model)
}

func TestNamedProviderLabel(t *testing.T) {
	client := &fakeClient{response: &openai.APIResponse{Text: "reply", Model: "local"}}
	provider := openai.NewNamedProvider("lab-vllm", "local", client)

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "lab-vllm", resp.Provider)
}

func TestProviderCompleteNilClient(t *testing.T) {
	provider := openai.NewProvider("gpt-4o", nil)

	_, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}
