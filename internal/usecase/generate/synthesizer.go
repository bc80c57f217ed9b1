package generate

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/domain"
	"github.com/mdrews/pentestgen/internal/scenario"
)

const defaultMaxTokens = 2048

// SynthesizerDeps captures the collaborators for the synthesis pipeline.
type SynthesizerDeps struct {
	Completer Completer
	Builder   *PromptBuilder
	Logger    Logger // optional

	// Temperature and MaxTokens apply to every completion. Zero values
	// fall back to the provider default and defaultMaxTokens.
	Temperature float64
	MaxTokens   int
}

// Synthesizer runs the two-step scenario -> command synthesis.
type Synthesizer struct {
	completer   Completer
	builder     *PromptBuilder
	logger      Logger
	temperature float64
	maxTokens   int
}

// NewSynthesizer wires a synthesizer from its dependencies.
func NewSynthesizer(deps SynthesizerDeps) *Synthesizer {
	maxTokens := deps.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Synthesizer{
		completer:   deps.Completer,
		builder:     deps.Builder,
		logger:      deps.Logger,
		temperature: deps.Temperature,
		maxTokens:   maxTokens,
	}
}

// ScenarioQuery selects context values, renders the query prompt, and asks
// the model for a natural-language pentest query.
func (s *Synthesizer) ScenarioQuery(ctx context.Context, sctx scenario.Context, seed uint64) (string, error) {
	prompt, err := s.builder.BuildQueryPrompt(sctx)
	if err != nil {
		return "", domain.NewGenerationError("scenario", err)
	}

	resp, err := s.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Seed:        seed,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", domain.NewGenerationError("scenario", err)
	}

	query := strings.TrimSpace(resp.Text)
	if query == "" {
		return "", domain.NewGenerationError("scenario", errEmptyResponse)
	}
	return query, nil
}

// CommandRecord renders the command prompt for the given user query, asks
// the model for a JSON reply, and parses it into a validated record.
// Parsing is two-stage: a strict parse first, then one best-effort
// extraction of the outermost JSON object. No further repair is attempted.
func (s *Synthesizer) CommandRecord(ctx context.Context, userQuery string, seed uint64) (domain.Record, error) {
	prompt, err := s.builder.BuildCommandPrompt(userQuery)
	if err != nil {
		return domain.Record{}, domain.NewGenerationError("command", err)
	}

	resp, err := s.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Seed:        seed,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSONOnly:    true,
	})
	if err != nil {
		return domain.Record{}, domain.NewGenerationError("command", err)
	}

	rec, err := parseRecord(resp.Text)
	if err != nil {
		return domain.Record{}, err
	}

	// The query echoed by the model is not trusted; stamp the real one.
	rec.GeneratedUserQuery = userQuery

	if err := rec.Validate(); err != nil {
		return domain.Record{}, domain.NewMalformedResponseError("incomplete record", err)
	}
	return rec, nil
}

// GenerateRecord runs both synthesis steps for one sample.
func (s *Synthesizer) GenerateRecord(ctx context.Context, sctx scenario.Context, seed uint64) (domain.Record, error) {
	query, err := s.ScenarioQuery(ctx, sctx, seed)
	if err != nil {
		return domain.Record{}, err
	}
	return s.CommandRecord(ctx, query, seed)
}

// GenerateRecords produces count records with time-seeded scenario
// selection, skipping failed samples. It fails only when nothing succeeded.
// This is the operation the interactive trigger invokes.
func (s *Synthesizer) GenerateRecords(ctx context.Context, count int) ([]domain.Record, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	records := make([]domain.Record, 0, count)
	var lastErr error
	for i := 0; i < count; i++ {
		sctx := scenario.Select(rng)
		rec, err := s.GenerateRecord(ctx, sctx, rng.Uint64()&0x7FFFFFFFFFFFFFFF)
		if err != nil {
			lastErr = err
			s.warn(ctx, "skipping record", map[string]interface{}{"index": i, "error": err})
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

// GenerateQueries produces count scenario queries only, without the command
// step. Used by the chat command's queries-only mode.
func (s *Synthesizer) GenerateQueries(ctx context.Context, count int) ([]string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	queries := make([]string, 0, count)
	var lastErr error
	for i := 0; i < count; i++ {
		sctx := scenario.Select(rng)
		query, err := s.ScenarioQuery(ctx, sctx, rng.Uint64()&0x7FFFFFFFFFFFFFFF)
		if err != nil {
			lastErr = err
			s.warn(ctx, "skipping query", map[string]interface{}{"index": i, "error": err})
			continue
		}
		queries = append(queries, query)
	}
	if len(queries) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return queries, nil
}

func (s *Synthesizer) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.LogWarning(ctx, msg, fields)
	}
}

// parseRecord parses model output into a record. Strict parse first; if
// that fails, one extraction attempt on the outermost JSON object.
func parseRecord(text string) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal([]byte(text), &rec); err == nil {
		return rec, nil
	}

	extracted := llmhttp.ExtractJSONObject(text)
	if extracted == "" {
		return domain.Record{}, domain.NewMalformedResponseError("no JSON object in response", nil)
	}
	if err := json.Unmarshal([]byte(extracted), &rec); err != nil {
		return domain.Record{}, domain.NewMalformedResponseError("extracted JSON does not parse", err)
	}
	return rec, nil
}
