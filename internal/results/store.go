package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists run records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Run is one finished training run.
type Run struct {
	ID         string
	Experiment string
	Seed       int64
	MeanReward float64
	StdReward  float64
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	experiment TEXT NOT NULL,
	seed INTEGER NOT NULL,
	mean_reward REAL NOT NULL,
	std_reward REAL NOT NULL,
	duration_seconds REAL NOT NULL,
	started_at_ms INTEGER NOT NULL,
	finished_at_ms INTEGER NOT NULL
);`

// OpenStore opens (creating if needed) the run database at path.
func OpenStore(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(runsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InsertRun records one finished run.
func (s *Store) InsertRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, seed, mean_reward, std_reward, duration_seconds, started_at_ms, finished_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Experiment, run.Seed, run.MeanReward, run.StdReward,
		run.Duration.Seconds(), run.StartedAt.UTC().UnixMilli(), run.FinishedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RunsByExperiment lists the runs of one experiment, oldest first.
func (s *Store) RunsByExperiment(ctx context.Context, experiment string) ([]Run, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, experiment, seed, mean_reward, std_reward, duration_seconds, started_at_ms, finished_at_ms
		FROM runs WHERE experiment = ? ORDER BY started_at_ms`, experiment)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationSeconds float64
		var startedMs, finishedMs int64
		if err := rows.Scan(&r.ID, &r.Experiment, &r.Seed, &r.MeanReward, &r.StdReward, &durationSeconds, &startedMs, &finishedMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationSeconds * float64(time.Second))
		r.StartedAt = time.UnixMilli(startedMs).UTC()
		r.FinishedAt = time.UnixMilli(finishedMs).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
