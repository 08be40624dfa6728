package app

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangsongtt/rlop/internal/experiment"
)

func newMonitorTestApp() *App {
	tracker := experiment.NewTracker(2)
	tracker.Start(0, "run-0")
	tracker.Finish(0, 42.5, 3.25, 7*time.Second)
	tracker.Fail(1, errors.New("diverged"))
	return &App{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		trackers: map[string]*experiment.Tracker{"lander": tracker},
	}
}

func TestHealthHandlerReturnsOK(t *testing.T) {
	a := newMonitorTestApp()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	a.healthHandler(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestStatusHandlerReportsRunStates(t *testing.T) {
	a := newMonitorTestApp()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status", nil)

	a.statusHandler(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snapshot map[string][]experiment.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Len(t, snapshot["lander"], 2)

	assert.Equal(t, experiment.RunDone, snapshot["lander"][0].State)
	assert.Equal(t, "run-0", snapshot["lander"][0].RunID)
	assert.Equal(t, 42.5, snapshot["lander"][0].MeanReward)
	assert.Equal(t, experiment.RunFailed, snapshot["lander"][1].State)
	assert.Equal(t, "diverged", snapshot["lander"][1].Error)
}
