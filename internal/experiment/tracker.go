package experiment

import (
	"sync"
	"time"
)

// RunState is the lifecycle state of one repetition.
type RunState string

const (
	RunPending RunState = "pending"
	RunRunning RunState = "running"
	RunDone    RunState = "done"
	RunFailed  RunState = "failed"
)

// RunStatus is a point-in-time view of one repetition, safe to serialize
// for the monitor endpoint.
type RunStatus struct {
	Index      int           `json:"index"`
	RunID      string        `json:"run_id,omitempty"`
	State      RunState      `json:"state"`
	Timesteps  int           `json:"timesteps"`
	MeanReward float64       `json:"mean_reward"`
	StdReward  float64       `json:"std_reward"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
}

// Tracker records run progress for the monitor endpoint. Safe for
// concurrent use.
type Tracker struct {
	mu   sync.Mutex
	runs []RunStatus
}

// NewTracker creates a tracker for n pending runs.
func NewTracker(n int) *Tracker {
	t := &Tracker{runs: make([]RunStatus, n)}
	for i := range t.runs {
		t.runs[i] = RunStatus{Index: i, State: RunPending}
	}
	return t
}

// Start marks run i as running.
func (t *Tracker) Start(i int, runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[i].RunID = runID
	t.runs[i].State = RunRunning
}

// Progress updates the consumed timesteps of run i.
func (t *Tracker) Progress(i, timesteps int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[i].Timesteps = timesteps
}

// Finish marks run i as done with its final results.
func (t *Tracker) Finish(i int, mean, std float64, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[i].State = RunDone
	t.runs[i].MeanReward = mean
	t.runs[i].StdReward = std
	t.runs[i].Duration = duration
}

// Fail marks run i as failed.
func (t *Tracker) Fail(i int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[i].State = RunFailed
	t.runs[i].Error = err.Error()
}

// Snapshot copies the current status of every run.
func (t *Tracker) Snapshot() []RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RunStatus, len(t.runs))
	copy(out, t.runs)
	return out
}
