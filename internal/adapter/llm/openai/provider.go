package openai

import (
	"context"
	"fmt"

	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

// Client abstracts the OpenAI HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, options CallOptions) (*APIResponse, error)
}

// Provider implements the usecase Completer port.
type Provider struct {
	name   string
	model  string
	client Client
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		name:   "openai",
		model:  model,
		client: client,
	}
}

// NewNamedProvider constructs a Provider with a custom provider label,
// used when an inference profile points at an OpenAI-compatible endpoint.
func NewNamedProvider(name, model string, client Client) *Provider {
	return &Provider{
		name:   name,
		model:  model,
		client: client,
	}
}

// Complete sends the prompt and translates the response.
func (p *Provider) Complete(ctx context.Context, req generate.CompletionRequest) (generate.CompletionResponse, error) {
	if p.client == nil {
		return generate.CompletionResponse{}, fmt.Errorf("%s client missing", p.name)
	}

	var seed *uint64
	if req.Seed > 0 {
		seed = &req.Seed
	}

	resp, err := p.client.Call(ctx, req.Prompt, CallOptions{
		Temperature: req.Temperature,
		Seed:        seed,
		MaxTokens:   req.MaxTokens,
		JSONFormat:  req.JSONOnly,
	})
	if err != nil {
		return generate.CompletionResponse{}, err
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return generate.CompletionResponse{
		Provider: p.name,
		Model:    model,
		Text:     resp.Text,
	}, nil
}
