// Package static provides a deterministic offline provider. It returns
// canned responses so the pipeline can be exercised without network
// access or API keys.
package static

import (
	"context"

	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

const providerName = "static"

const staticQuery = "How can I check if the target at 10.0.0.5 is still running SMBv1?"

const staticRecord = `{
  "generated_user_query": "",
  "command": "nmap -p 445 --script smb-protocols 10.0.0.5",
  "steps": {
    "Goal Identification": "The user wants to determine whether the host at 10.0.0.5 still speaks the deprecated SMBv1 protocol.",
    "Right Tool Selection": "Nmap with the smb-protocols NSE script enumerates the SMB dialects a host accepts, which directly answers the question.",
    "Command Optimization": "Scanning only port 445 with the single relevant script keeps the probe fast and quiet compared to a full service scan.",
    "Command Explanation": "nmap targets 10.0.0.5 on port 445 and runs the smb-protocols script, which lists every SMB dialect the server negotiates, including SMBv1 if enabled.",
    "Risk Analysis": "The script performs protocol negotiation only. It sends a handful of packets and does not authenticate or exploit, so impact on the target is negligible.",
    "Risk Determination": "low"
  }
}`

// Provider returns fixed responses for both pipeline stages. A request
// marked JSON-only gets a complete record; anything else gets a sample
// user query.
type Provider struct {
	model string
}

// NewProvider constructs the static provider.
func NewProvider() *Provider {
	return &Provider{model: "static-v1"}
}

// Complete returns the canned response for the requested stage.
func (p *Provider) Complete(_ context.Context, req generate.CompletionRequest) (generate.CompletionResponse, error) {
	text := staticQuery
	if req.JSONOnly {
		text = staticRecord
	}
	return generate.CompletionResponse{
		Provider: providerName,
		Model:    p.model,
		Text:     text,
	}, nil
}
