package evalpolicy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEnv pays out a fixed return per episode, cycling through the
// scripted values as episodes are reset.
type scriptedEnv struct {
	payouts []float64
	episode int
}

func (s *scriptedEnv) Reset(seed int64) []float64 {
	return []float64{0}
}

func (s *scriptedEnv) Step(action int) ([]float64, float64, bool) {
	r := s.payouts[s.episode%len(s.payouts)]
	s.episode++
	return []float64{0}, r, true
}

func (s *scriptedEnv) ObservationSize() int { return 1 }
func (s *scriptedEnv) ActionCount() int     { return 2 }

type constantPolicy struct{ action int }

func (p constantPolicy) Predict(obs []float64, deterministic bool) int { return p.action }

func TestEvaluateComputesMeanAndStd(t *testing.T) {
	e := &scriptedEnv{payouts: []float64{1, 3}}
	mean, std, err := Evaluate(context.Background(), constantPolicy{}, e, 4, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mean, 1e-12)
	// Sample standard deviation of {1, 3, 1, 3}.
	assert.InDelta(t, 1.1547005, std, 1e-6)
}

func TestEvaluateSingleEpisodeHasZeroStd(t *testing.T) {
	e := &scriptedEnv{payouts: []float64{5}}
	mean, std, err := Evaluate(context.Background(), constantPolicy{}, e, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestEvaluateStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &scriptedEnv{payouts: []float64{1}}
	_, _, err := Evaluate(ctx, constantPolicy{}, e, 10, 0)
	require.ErrorIs(t, err, context.Canceled)
}
