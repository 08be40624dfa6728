package lunarlander

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetIsDeterministicPerSeed(t *testing.T) {
	a := New()
	b := New()
	require.Equal(t, a.Reset(42), b.Reset(42))
	assert.NotEqual(t, a.Reset(1), b.Reset(2))
}

func TestTrajectoryIsDeterministicPerSeed(t *testing.T) {
	a := New()
	b := New()
	a.Reset(7)
	b.Reset(7)
	for i := 0; i < 200; i++ {
		action := []int{ActionNoop, ActionFireMain, ActionFireLeft, ActionFireRight}[i%4]
		obsA, rewA, doneA := a.Step(action)
		obsB, rewB, doneB := b.Step(action)
		require.Equal(t, obsA, obsB)
		require.Equal(t, rewA, rewB)
		require.Equal(t, doneA, doneB)
		if doneA {
			break
		}
	}
}

func TestSpaces(t *testing.T) {
	l := New()
	assert.Equal(t, 8, l.ObservationSize())
	assert.Equal(t, 4, l.ActionCount())
	assert.Len(t, l.Reset(0), 8)
}

func TestFreeFallCrashes(t *testing.T) {
	l := New()
	l.Reset(3)

	var total float64
	for i := 0; i < maxSteps; i++ {
		_, reward, done := l.Step(ActionNoop)
		total += reward
		if done {
			// An uncontrolled drop hits the ground too fast to be a landing,
			// so the episode must end with the crash penalty dominating.
			assert.Less(t, total, -50.0)
			return
		}
	}
	t.Fatal("free fall never terminated")
}

func TestEpisodeEndsWithinStepLimit(t *testing.T) {
	l := New()
	l.Reset(11)
	for i := 0; i < maxSteps; i++ {
		// Hovering on the main engine can outlast the fuel-free tasks, but
		// never the hard step limit.
		_, _, done := l.Step(ActionFireMain)
		if done {
			return
		}
	}
	t.Fatal("episode exceeded the step limit")
}

func TestLegContactFlagsAreBinary(t *testing.T) {
	l := New()
	obs := l.Reset(5)
	require.Contains(t, []float64{0, 1}, obs[6])
	require.Contains(t, []float64{0, 1}, obs[7])
}

func TestStepAfterDonePanics(t *testing.T) {
	l := New()
	l.Reset(3)
	for i := 0; i < maxSteps; i++ {
		if _, _, done := l.Step(ActionNoop); done {
			break
		}
	}
	assert.Panics(t, func() { l.Step(ActionNoop) })
}

func TestInvalidActionPanics(t *testing.T) {
	l := New()
	l.Reset(0)
	assert.Panics(t, func() { l.Step(99) })
}
