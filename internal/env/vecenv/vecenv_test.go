package vecenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangsongtt/rlop/internal/env"
	"github.com/zhangsongtt/rlop/internal/env/cartpole"
)

func TestResetSeedsEverySlot(t *testing.T) {
	v := New(cartpole.Maker, 4)
	obs := v.Reset(100)
	require.Len(t, obs, 4)
	for i, o := range obs {
		require.Len(t, o, v.ObservationSize(), "slot %d", i)
	}
	// Different seeds per slot mean different starts.
	assert.NotEqual(t, obs[0], obs[1])
}

func TestStepIsDeterministic(t *testing.T) {
	a := New(cartpole.Maker, 3)
	b := New(cartpole.Maker, 3)
	a.Reset(5)
	b.Reset(5)
	actions := []int{0, 1, 0}
	for i := 0; i < 400; i++ {
		resA, epsA := a.Step(actions)
		resB, epsB := b.Step(actions)
		require.Equal(t, resA, resB)
		require.Equal(t, epsA, epsB)
	}
}

func TestAutoResetKeepsSlotsAlive(t *testing.T) {
	v := New(cartpole.Maker, 2)
	v.Reset(1)

	sawEpisode := false
	for i := 0; i < 600; i++ {
		// Constant one-sided pushes guarantee episode ends.
		res, episodes := v.Step([]int{1, 1})
		for _, ep := range episodes {
			sawEpisode = true
			assert.Greater(t, ep.Length, 0)
			assert.Equal(t, float64(ep.Length), ep.Return, "cartpole pays +1 per step")
		}
		require.Len(t, res.Obs, 2)
	}
	assert.True(t, sawEpisode, "expected at least one completed episode")
}

func TestEpisodeAccountingResetsAfterDone(t *testing.T) {
	v := New(cartpole.Maker, 1)
	v.Reset(2)

	var lengths []int
	for i := 0; i < 1200; i++ {
		_, episodes := v.Step([]int{1})
		for _, ep := range episodes {
			lengths = append(lengths, ep.Length)
		}
	}
	require.GreaterOrEqual(t, len(lengths), 2)
	for _, l := range lengths {
		// Each episode's length is counted from its own start.
		assert.Less(t, l, 500)
	}
}

func TestMismatchedActionCountPanics(t *testing.T) {
	v := New(cartpole.Maker, 2)
	v.Reset(0)
	assert.Panics(t, func() { v.Step([]int{0}) })
}

func TestSpacesComeFromUnderlyingEnv(t *testing.T) {
	v := New(func() env.Env { return cartpole.New() }, 2)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 4, v.ObservationSize())
	assert.Equal(t, 2, v.ActionCount())
}
