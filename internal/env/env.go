// Package env defines the contract between simulated control tasks and the
// agents that train on them.
package env

// Env is a single simulated control task with a discrete action space.
//
// Implementations are deterministic under an explicit seed and are not safe
// for concurrent use; a vectorized wrapper owns one instance per slot.
type Env interface {
	// Reset reseeds the task and returns the initial observation.
	Reset(seed int64) []float64

	// Step advances the simulation by one frame using the given action index.
	// It returns the next observation, the reward for the transition, and
	// whether the episode ended (terminal state or step limit).
	Step(action int) (obs []float64, reward float64, done bool)

	// ObservationSize is the length of observation vectors.
	ObservationSize() int

	// ActionCount is the number of discrete actions.
	ActionCount() int
}

// Maker constructs a fresh, unseeded environment instance. Vectorized
// wrappers call it once per slot.
type Maker func() Env
