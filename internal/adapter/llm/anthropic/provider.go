package anthropic

import (
	"context"
	"fmt"

	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

const providerName = "anthropic"

// Client abstracts the Anthropic HTTP client behaviour we need.
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

// Complete sends the prompt to Anthropic and translates the response.
// The seed is dropped: the Messages API has no seed parameter.
func (p *Provider) Complete(ctx context.Context, req generate.CompletionRequest) (generate.CompletionResponse, error) {
	if p.client == nil {
		return generate.CompletionResponse{}, fmt.Errorf("anthropic client missing")
	}

	resp, err := p.client.Call(ctx, req.Prompt, CallOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return generate.CompletionResponse{}, err
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return generate.CompletionResponse{
		Provider: providerName,
		Model:    model,
		Text:     resp.Text,
	}, nil
}
