package ppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAdvantagesSingleStep(t *testing.T) {
	b := newRolloutBuffer(1, 1)
	b.obs[0] = [][]float64{{0}}
	b.rewards[0][0] = 1
	b.values[0][0] = 0.5
	b.dones[0][0] = false

	b.computeAdvantages([]float64{2.0}, 0.9, 1.0)

	// delta = r + gamma * V(next) - V(s) = 1 + 0.9*2 - 0.5
	assert.InDelta(t, 2.3, b.advantages[0][0], 1e-12)
	assert.InDelta(t, 2.8, b.returns[0][0], 1e-12)
}

func TestComputeAdvantagesStopsAtEpisodeBoundary(t *testing.T) {
	b := newRolloutBuffer(2, 1)
	b.obs[0] = [][]float64{{0}}
	b.obs[1] = [][]float64{{0}}
	b.rewards[0][0] = 1
	b.rewards[1][0] = 1
	b.values[0][0] = 0
	b.values[1][0] = 0
	b.dones[0][0] = true // first transition ends its episode
	b.dones[1][0] = false

	b.computeAdvantages([]float64{10}, 0.99, 0.95)

	// Step 1 bootstraps the last value; step 0 must not see any of it.
	assert.InDelta(t, 1+0.99*10, b.advantages[1][0], 1e-12)
	assert.InDelta(t, 1.0, b.advantages[0][0], 1e-12)
}

func TestComputeAdvantagesRecursion(t *testing.T) {
	gamma, lam := 0.9, 0.8
	b := newRolloutBuffer(3, 1)
	for tstep := 0; tstep < 3; tstep++ {
		b.obs[tstep] = [][]float64{{0}}
		b.rewards[tstep][0] = 1
		b.values[tstep][0] = 0.5
	}
	b.computeAdvantages([]float64{0.5}, gamma, lam)

	// Hand-rolled backward recursion over constant rewards and values.
	want := make([]float64, 3)
	gae := 0.0
	for tstep := 2; tstep >= 0; tstep-- {
		delta := 1 + gamma*0.5 - 0.5
		gae = delta + gamma*lam*gae
		want[tstep] = gae
	}
	for tstep := 0; tstep < 3; tstep++ {
		assert.InDelta(t, want[tstep], b.advantages[tstep][0], 1e-12, "step %d", tstep)
	}
}

func TestFlattenIsSampleMajor(t *testing.T) {
	b := newRolloutBuffer(2, 2)
	b.obs[0] = [][]float64{{1, 1}, {2, 2}}
	b.obs[1] = [][]float64{{3, 3}, {4, 4}}
	b.actions[0] = []int{0, 1}
	b.actions[1] = []int{1, 0}
	b.logProbs[0] = []float64{-0.1, -0.2}
	b.logProbs[1] = []float64{-0.3, -0.4}
	b.computeAdvantages([]float64{0, 0}, 1, 1)

	obs, actions, logProbs, advantages, returns := b.flatten(2)
	require.Len(t, obs, 8)
	require.Len(t, actions, 4)
	require.Len(t, logProbs, 4)
	require.Len(t, advantages, 4)
	require.Len(t, returns, 4)

	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 4, 4}, obs)
	assert.Equal(t, []int{0, 1, 1, 0}, actions)
	assert.Equal(t, []float64{-0.1, -0.2, -0.3, -0.4}, logProbs)
	assert.Equal(t, 4, b.size())
}
