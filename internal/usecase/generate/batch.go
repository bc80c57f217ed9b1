package generate

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdrews/pentestgen/internal/determinism"
	"github.com/mdrews/pentestgen/internal/scenario"
)

var (
	errEmptyResponse = errors.New("empty response text")

	// ErrNoSamplesSucceeded is returned when a batch produced zero records.
	ErrNoSamplesSucceeded = errors.New("no samples succeeded")
)

// BatchRequest describes one dataset-generation run.
type BatchRequest struct {
	Count int

	// Seed fixes scenario selection and per-sample provider seeds for
	// reproducible batches. Zero means a fresh random batch.
	Seed uint64

	// Concurrency bounds parallel samples. Values below 2 run serially.
	Concurrency int

	// Progress, when set, is invoked after each sample with its index and
	// outcome. Called from worker goroutines.
	Progress func(index int, err error)
}

// BatchResult summarizes a run.
type BatchResult struct {
	Requested int
	Succeeded int
	Failed    int
}

// Runner executes batches: synthesize N samples, append each success to the
// dataset, log and skip each failure.
type Runner struct {
	synth  *Synthesizer
	writer RecordWriter
	logger Logger
}

// NewRunner wires a batch runner.
func NewRunner(synth *Synthesizer, writer RecordWriter, logger Logger) *Runner {
	return &Runner{synth: synth, writer: writer, logger: logger}
}

// Run generates req.Count samples. Individual sample failures do not abort
// the batch. ErrNoSamplesSucceeded is returned only when every sample
// failed; callers map that to a non-zero exit.
func (r *Runner) Run(ctx context.Context, req BatchRequest) (BatchResult, error) {
	result := BatchResult{Requested: req.Count}
	if req.Count <= 0 {
		return result, nil
	}

	batchSeed := req.Seed
	if batchSeed == 0 {
		batchSeed = rand.New(rand.NewSource(time.Now().UnixNano())).Uint64() & 0x7FFFFFFFFFFFFFFF
	}

	concurrency := req.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i := 0; i < req.Count; i++ {
		index := i
		group.Go(func() error {
			err := r.runSample(gctx, batchSeed, index)

			mu.Lock()
			if err != nil {
				result.Failed++
			} else {
				result.Succeeded++
			}
			mu.Unlock()

			if req.Progress != nil {
				req.Progress(index, err)
			}

			// Only context cancellation aborts the batch.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, err
	}
	if result.Succeeded == 0 {
		return result, ErrNoSamplesSucceeded
	}
	return result, nil
}

func (r *Runner) runSample(ctx context.Context, batchSeed uint64, index int) error {
	sampleSeed := determinism.GenerateSeed(batchSeed, index)
	rng := rand.New(rand.NewSource(int64(sampleSeed)))
	sctx := scenario.Select(rng)

	rec, err := r.synth.GenerateRecord(ctx, sctx, sampleSeed)
	if err != nil {
		r.warn(ctx, "skipping sample", map[string]interface{}{"index": index, "error": err})
		return err
	}

	if err := r.writer.Append(ctx, rec); err != nil {
		r.warn(ctx, "failed to persist sample", map[string]interface{}{"index": index, "error": err})
		return err
	}
	return nil
}

func (r *Runner) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.LogWarning(ctx, msg, fields)
	}
}
