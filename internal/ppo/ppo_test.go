package ppo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/env"
	"github.com/zhangsongtt/rlop/internal/env/vecenv"
)

// banditEnv is a minimal task with one rewarding action: short episodes,
// constant observation, reward only for action 1.
type banditEnv struct {
	steps int
}

func (b *banditEnv) Reset(seed int64) []float64 {
	b.steps = 0
	return []float64{1}
}

func (b *banditEnv) Step(action int) ([]float64, float64, bool) {
	b.steps++
	reward := 0.0
	if action == 1 {
		reward = 1
	}
	return []float64{1}, reward, b.steps >= 8
}

func (b *banditEnv) ObservationSize() int { return 1 }
func (b *banditEnv) ActionCount() int     { return 2 }

func makeBandit() env.Env { return &banditEnv{} }

func testParams() config.PPOParams {
	p := config.DefaultPPO()
	p.LearningRate = 1e-2
	p.RolloutSteps = 64
	p.BatchSize = 32
	p.Epochs = 4
	p.Gamma = 0.9
	p.HiddenSizes = []int{16}
	return p
}

func TestLearnPrefersRewardingAction(t *testing.T) {
	venv := vecenv.New(makeBandit, 4)
	agent := New(testParams(), venv, 1)

	require.NoError(t, agent.Learn(context.Background(), 2500, nil))

	assert.Equal(t, 1, agent.Predict([]float64{1}, true))

	// The stochastic policy should also have converged on action 1.
	hits := 0
	for i := 0; i < 200; i++ {
		if agent.Predict([]float64{1}, false) == 1 {
			hits++
		}
	}
	assert.Greater(t, hits, 150)
}

func TestLearnReportsIterationStats(t *testing.T) {
	venv := vecenv.New(makeBandit, 2)
	agent := New(testParams(), venv, 3)

	var stats []IterationStats
	require.NoError(t, agent.Learn(context.Background(), 300, func(s IterationStats) {
		stats = append(stats, s)
	}))

	// 64 steps x 2 envs per iteration: 300 total steps need 3 iterations.
	require.Len(t, stats, 3)
	assert.Equal(t, 128, stats[0].Timesteps)
	assert.Equal(t, 384, stats[2].Timesteps)
	assert.Equal(t, 384, agent.Timesteps())
	for i, s := range stats {
		assert.Equal(t, i+1, s.Iteration)
		assert.Greater(t, s.Updates, 0)
		// Episodes are 8 steps long, so every iteration finishes plenty.
		assert.Greater(t, s.Episodes, 0)
		assert.Len(t, s.EpisodeReturns, s.Episodes)
		assert.Greater(t, s.Entropy, 0.0)
	}
}

func TestLearnHonorsContextCancellation(t *testing.T) {
	venv := vecenv.New(makeBandit, 2)
	agent := New(testParams(), venv, 5)

	ctx, cancel := context.WithCancel(context.Background())
	iterations := 0
	err := agent.Learn(ctx, 1_000_000, func(IterationStats) {
		iterations++
		if iterations == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, iterations)
}

func TestTargetKLStopsEpochsEarly(t *testing.T) {
	venv := vecenv.New(makeBandit, 2)
	params := testParams()
	params.TargetKL = 1e-9 // absurdly tight: the first minibatch trips it
	agent := New(params, venv, 7)

	var first IterationStats
	require.NoError(t, agent.Learn(context.Background(), 128, func(s IterationStats) {
		if s.Iteration == 1 {
			first = s
		}
	}))

	full := params.Epochs * (128 / params.BatchSize)
	assert.Less(t, first.Updates, full, "early stop should skip minibatches")
}

func TestDeterministicAcrossSeeds(t *testing.T) {
	run := func() []float64 {
		venv := vecenv.New(makeBandit, 2)
		agent := New(testParams(), venv, 11)
		require.NoError(t, agent.Learn(context.Background(), 256, nil))
		return agent.policy.Predict([]float64{1})
	}
	assert.Equal(t, run(), run())
}
