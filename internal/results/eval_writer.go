// Package results persists experiment outcomes: the flat evaluation file,
// a SQLite run database and an HTML learning-curve report.
package results

import (
	"fmt"
	"os"
	"sync"
)

// EvalWriter appends one tab-separated line per finished run to the
// evaluation file: mean reward, reward standard deviation, run duration in
// seconds. The file is truncated when the writer is created, mirroring a
// fresh experiment start. Safe for concurrent use.
type EvalWriter struct {
	mu   sync.Mutex
	path string
}

// NewEvalWriter truncates (or creates) the file at path.
func NewEvalWriter(path string) (*EvalWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing eval file: %w", err)
	}
	return &EvalWriter{path: path}, nil
}

// Append writes one result line.
func (w *EvalWriter) Append(meanReward, stdReward, seconds float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening eval file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%v\t%v\t%v\n", meanReward, stdReward, seconds); err != nil {
		f.Close()
		return fmt.Errorf("appending eval line: %w", err)
	}
	return f.Close()
}
