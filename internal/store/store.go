package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for generation run history.
type Store interface {
	CreateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Run represents a single batch generation execution.
type Run struct {
	RunID      string
	Timestamp  time.Time
	Provider   string
	Model      string
	Requested  int
	Succeeded  int
	Failed     int
	Seed       uint64
	OutputPath string
	Duration   time.Duration
}

// SuccessRate reports the fraction of requested samples that produced a
// record, or 0 for an empty run.
func (r Run) SuccessRate() float64 {
	if r.Requested == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Requested)
}
