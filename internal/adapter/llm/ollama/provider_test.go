package ollama_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/adapter/llm/ollama"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

type fakeClient struct {
	lastPrompt  string
	lastOptions ollama.CallOptions
	response    *ollama.APIResponse
	err         error
}

func (f *fakeClient) Call(ctx context.Context, prompt string, options ollama.CallOptions) (*ollama.APIResponse, error) {
	f.lastPrompt = prompt
	f.lastOptions = options
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestProviderComplete(t *testing.T) {
	client := &fakeClient{response: &ollama.APIResponse{Text: "reply", Model: "llama3.1"}}
	provider := ollama.NewProvider("llama3.1", client)

	resp, err := provider.Complete(context.Background(), generate.CompletionRequest{
		Prompt:      "the prompt",
		Seed:        42,
		Temperature: 0.5,
		JSONOnly:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "llama3.1", resp.Model)
	assert.Equal(t, "reply", resp.Text)

	assert.Equal(t, "the prompt", client.lastPrompt)
	require.NotNil(t, client.lastOptions.Seed)
	assert.Equal(t, uint64(42), *client.lastOptions.Seed)
	assert.True(t, client.lastOptions.JSONFormat)
	assert.Equal(t, 0.5, client.lastOptions.Temperature)
}

func TestProviderCompleteZeroSeedOmitted(t *testing.T) {
	client := &fakeClient{response: &ollama.APIResponse{Text: "reply"}}
	provider := ollama.NewProvider("llama3.1", client)

	_, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Nil(t, client.lastOptions.Seed)
}

func TestProviderCompleteNilClient(t *testing.T) {
	provider := ollama.NewProvider("llama3.1", nil)

	_, err := provider.Complete(context.Background(), generate.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}
