package results

import (
	"fmt"
	"os"
)

// TrainLog writes a per-run tab-separated training progress file with a
// time_steps column followed by named stats, one row per training iteration.
type TrainLog struct {
	f       *os.File
	columns []string
}

// NewTrainLog creates the log file and writes its header row.
func NewTrainLog(path string, columns ...string) (*TrainLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating training log: %w", err)
	}
	header := "time_steps"
	for _, c := range columns {
		header += "\t" + c
	}
	if _, err := fmt.Fprintln(f, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing training log header: %w", err)
	}
	return &TrainLog{f: f, columns: columns}, nil
}

// Append writes one row. The number of values must match the header.
func (l *TrainLog) Append(timesteps int, values ...float64) error {
	if len(values) != len(l.columns) {
		return fmt.Errorf("training log: got %d values for %d columns", len(values), len(l.columns))
	}
	row := fmt.Sprintf("%d", timesteps)
	for _, v := range values {
		row += fmt.Sprintf("\t%v", v)
	}
	if _, err := fmt.Fprintln(l.f, row); err != nil {
		return fmt.Errorf("appending training log row: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (l *TrainLog) Close() error {
	return l.f.Close()
}
