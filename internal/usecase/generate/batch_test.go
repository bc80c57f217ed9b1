package generate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdrews/pentestgen/internal/domain"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

// okCompleter answers every query request with a fixed query and every
// JSON request with a fixed valid record. Safe for concurrent use.
type okCompleter struct {
	mu       sync.Mutex
	prompts  []string
	failures int
}

func (c *okCompleter) Complete(ctx context.Context, req generate.CompletionRequest) (generate.CompletionResponse, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, req.Prompt)
	fail := c.failures > 0
	if fail {
		c.failures--
	}
	c.mu.Unlock()

	if fail {
		return generate.CompletionResponse{}, errors.New("synthetic failure")
	}
	if req.JSONOnly {
		return generate.CompletionResponse{Provider: "ok", Model: "test", Text: validRecordJSON}, nil
	}
	return generate.CompletionResponse{Provider: "ok", Model: "test", Text: "generated query"}, nil
}

// memWriter records appends, optionally failing every Nth one.
type memWriter struct {
	mu        sync.Mutex
	records   []domain.Record
	appends   int
	failEvery int
}

func (w *memWriter) Append(ctx context.Context, rec domain.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.appends++
	if w.failEvery > 0 && w.appends%w.failEvery == 0 {
		return errors.New("disk full")
	}
	w.records = append(w.records, rec)
	return nil
}

func newRunner(t *testing.T, completer generate.Completer, writer generate.RecordWriter) *generate.Runner {
	t.Helper()
	builder, err := generate.NewPromptBuilder()
	require.NoError(t, err)
	synth := generate.NewSynthesizer(generate.SynthesizerDeps{
		Completer: completer,
		Builder:   builder,
	})
	return generate.NewRunner(synth, writer, nil)
}

func TestRunWritesOneRecordPerSample(t *testing.T) {
	writer := &memWriter{}
	runner := newRunner(t, &okCompleter{}, writer)

	result, err := runner.Run(context.Background(), generate.BatchRequest{Count: 3, Seed: 99})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, writer.records, 3)

	for _, rec := range writer.records {
		assert.NoError(t, rec.Validate())
		assert.Equal(t, "generated query", rec.GeneratedUserQuery)
	}
}

func TestRunSkipsFailedSamples(t *testing.T) {
	// Nine appends, every third one fails: 9 - 9/3 = 6 records survive.
	writer := &memWriter{failEvery: 3}
	runner := newRunner(t, &okCompleter{}, writer)

	result, err := runner.Run(context.Background(), generate.BatchRequest{Count: 9, Seed: 99})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	assert.Len(t, writer.records, 6)
}

func TestRunAllFailedReturnsError(t *testing.T) {
	// Every completion fails, so every sample fails at the query stage.
	completer := &okCompleter{failures: 1 << 30}
	writer := &memWriter{}
	runner := newRunner(t, completer, writer)

	result, err := runner.Run(context.Background(), generate.BatchRequest{Count: 4, Seed: 99})
	require.ErrorIs(t, err, generate.ErrNoSamplesSucceeded)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 4, result.Failed)
	assert.Empty(t, writer.records)
}

func TestRunZeroCountIsNoop(t *testing.T) {
	writer := &memWriter{}
	runner := newRunner(t, &okCompleter{}, writer)

	result, err := runner.Run(context.Background(), generate.BatchRequest{Count: 0})
	require.NoError(t, err)
	assert.Equal(t, generate.BatchResult{}, result)
}

func TestRunSeedReproducesScenarioSelection(t *testing.T) {
	first := &okCompleter{}
	second := &okCompleter{}

	_, err := newRunner(t, first, &memWriter{}).Run(context.Background(),
		generate.BatchRequest{Count: 5, Seed: 12345})
	require.NoError(t, err)

	_, err = newRunner(t, second, &memWriter{}).Run(context.Background(),
		generate.BatchRequest{Count: 5, Seed: 12345})
	require.NoError(t, err)

	// Serial runs with the same batch seed must render identical prompts.
	assert.Equal(t, first.prompts, second.prompts)
}

func TestRunInvokesProgressPerSample(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	runner := newRunner(t, &okCompleter{}, &memWriter{})
	_, err := runner.Run(context.Background(), generate.BatchRequest{
		Count: 4,
		Seed:  99,
		Progress: func(index int, err error) {
			mu.Lock()
			seen[index] = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Len(t, seen, 4)
}

func TestRunConcurrentSamples(t *testing.T) {
	writer := &memWriter{}
	runner := newRunner(t, &okCompleter{}, writer)

	result, err := runner.Run(context.Background(), generate.BatchRequest{
		Count:       20,
		Seed:        7,
		Concurrency: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, result.Succeeded)
	assert.Len(t, writer.records, 20)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newRunner(t, &okCompleter{}, &memWriter{})
	_, err := runner.Run(ctx, generate.BatchRequest{Count: 5, Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
