// Package vecenv steps a batch of identical environments in parallel.
//
// Each slot owns one env.Env instance and is advanced on its own goroutine
// per Step call. Finished episodes are reset in place with a fresh
// deterministic seed, so the batch never contains a dead slot.
package vecenv

import (
	"sync"

	"github.com/zhangsongtt/rlop/internal/env"
)

// StepResult holds the per-slot outcome of one vectorized step. Observations
// for slots that finished an episode are the first observations of the next
// episode, matching the auto-reset convention of vectorized rollouts.
type StepResult struct {
	Obs     [][]float64
	Rewards []float64
	Dones   []bool
}

// Episode summarizes one completed episode.
type Episode struct {
	Slot   int
	Return float64
	Length int
}

// VecEnv is a fixed-size batch of environments. Step is internally parallel
// but VecEnv itself is not safe for concurrent use.
type VecEnv struct {
	envs     []env.Env
	seedBase int64
	resets   []int64 // per-slot reset count, drives deterministic reseeding

	returns []float64
	lengths []int
}

// New builds n environment instances from the maker.
func New(maker env.Maker, n int) *VecEnv {
	if n <= 0 {
		panic("vecenv: env count must be positive")
	}
	v := &VecEnv{
		envs:    make([]env.Env, n),
		resets:  make([]int64, n),
		returns: make([]float64, n),
		lengths: make([]int, n),
	}
	for i := range v.envs {
		v.envs[i] = maker()
	}
	return v
}

// Reset seeds slot i with seed+i and returns the batch of initial
// observations. Subsequent auto-resets of slot i draw from the disjoint
// stream seed+i+k*n, so results are reproducible regardless of goroutine
// scheduling.
func (v *VecEnv) Reset(seed int64) [][]float64 {
	v.seedBase = seed
	obs := make([][]float64, len(v.envs))
	for i, e := range v.envs {
		v.resets[i] = 0
		v.returns[i] = 0
		v.lengths[i] = 0
		obs[i] = e.Reset(seed + int64(i))
	}
	return obs
}

// Step advances every slot by one frame in parallel and auto-resets the
// slots whose episodes ended. It returns the batched transition plus the
// episodes completed during this step.
func (v *VecEnv) Step(actions []int) (StepResult, []Episode) {
	if len(actions) != len(v.envs) {
		panic("vecenv: action count does not match env count")
	}

	res := StepResult{
		Obs:     make([][]float64, len(v.envs)),
		Rewards: make([]float64, len(v.envs)),
		Dones:   make([]bool, len(v.envs)),
	}

	var wg sync.WaitGroup
	wg.Add(len(v.envs))
	for i := range v.envs {
		go func(i int) {
			defer wg.Done()
			obs, reward, done := v.envs[i].Step(actions[i])
			if done {
				v.resets[i]++
				obs = v.envs[i].Reset(v.seedBase + int64(i) + v.resets[i]*int64(len(v.envs)))
			}
			res.Obs[i] = obs
			res.Rewards[i] = reward
			res.Dones[i] = done
		}(i)
	}
	wg.Wait()

	var episodes []Episode
	for i := range v.envs {
		v.returns[i] += res.Rewards[i]
		v.lengths[i]++
		if res.Dones[i] {
			episodes = append(episodes, Episode{Slot: i, Return: v.returns[i], Length: v.lengths[i]})
			v.returns[i] = 0
			v.lengths[i] = 0
		}
	}
	return res, episodes
}

// Len is the number of slots.
func (v *VecEnv) Len() int { return len(v.envs) }

// ObservationSize is the observation length of the underlying task.
func (v *VecEnv) ObservationSize() int { return v.envs[0].ObservationSize() }

// ActionCount is the action count of the underlying task.
func (v *VecEnv) ActionCount() int { return v.envs[0].ActionCount() }
