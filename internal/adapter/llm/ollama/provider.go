package ollama

import (
	"context"
	"fmt"

	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

const providerName = "ollama"

// Client abstracts the Ollama HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider implements the usecase Completer port.
type Provider struct {
	model  string
	client Client
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		model:  model,
		client: client,
	}
}

// Complete sends the prompt to Ollama and translates the response.
func (p *Provider) Complete(ctx context.Context, req generate.CompletionRequest) (generate.CompletionResponse, error) {
	if p.client == nil {
		return generate.CompletionResponse{}, fmt.Errorf("ollama client missing")
	}

	var seed *uint64
	if req.Seed > 0 {
		seed = &req.Seed
	}

	resp, err := p.client.Call(ctx, req.Prompt, CallOptions{
		Temperature: req.Temperature,
		Seed:        seed,
		JSONFormat:  req.JSONOnly,
	})
	if err != nil {
		return generate.CompletionResponse{}, err
	}

	return generate.CompletionResponse{
		Provider: providerName,
		Model:    resp.Model,
		Text:     resp.Text,
	}, nil
}
