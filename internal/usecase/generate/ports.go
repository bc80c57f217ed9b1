package generate

import (
	"context"

	"github.com/mdrews/pentestgen/internal/domain"
)

// CompletionRequest is the outbound payload for a completion backend.
type CompletionRequest struct {
	Prompt      string
	Seed        uint64
	Temperature float64
	MaxTokens   int

	// JSONOnly asks the backend for a JSON-constrained response where the
	// API supports it. Backends without such a mode ignore it; the prompt
	// itself already demands JSON.
	JSONOnly bool
}

// CompletionResponse is the standardized reply from any backend.
type CompletionResponse struct {
	Provider string
	Model    string
	Text     string
}

// Completer is the single capability the synthesizers consume. Any
// language-model backend (local runner, hosted API, or a deterministic test
// stub) satisfies it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// RecordWriter persists one record per call. Implementations must be safe
// for concurrent use; samples may be generated in parallel.
type RecordWriter interface {
	Append(ctx context.Context, rec domain.Record) error
}

// Logger is the minimal logging surface the use case needs.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
