// Package jsonl appends dataset records to a JSON Lines file, one
// complete JSON object per line.
package jsonl

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mdrews/pentestgen/internal/domain"
)

// Writer appends records to a JSONL file. Append is safe for concurrent
// use; a mutex serializes writes so lines never interleave.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewWriter opens path for appending, creating it if needed. Existing
// content is preserved so successive runs accumulate into one dataset.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", path, err)
	}
	return &Writer{file: f, path: path}, nil
}

// Path returns the dataset file path.
func (w *Writer) Path() string {
	return w.path
}

// Append serializes the record and writes it as a single line.
func (w *Writer) Append(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
