// Package ppo implements Proximal Policy Optimization with a clipped
// surrogate objective over discrete actions. See
// https://arxiv.org/abs/1707.06347.
//
// The agent owns a categorical policy network and a separate value network,
// collects fixed-length rollouts from a vectorized environment, estimates
// advantages with GAE(lambda) and optimizes both networks with Adam over
// shuffled minibatch epochs.
package ppo

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/env/vecenv"
	"github.com/zhangsongtt/rlop/internal/mlp"
)

// IterationStats summarizes one collect/train iteration for monitoring.
type IterationStats struct {
	Timesteps      int
	Iteration      int
	Updates        int
	Episodes       int
	EpisodeReturns []float64
	PolicyLoss     float64
	ValueLoss      float64
	Entropy        float64
	ApproxKL       float64
}

// MonitorFunc receives stats after every training iteration.
type MonitorFunc func(IterationStats)

// Agent is a PPO learner bound to one vectorized environment.
type Agent struct {
	params config.PPOParams
	venv   *vecenv.VecEnv
	rng    *rand.Rand
	seed   int64

	policy    *mlp.Network
	value     *mlp.Network
	policyOpt *mlp.Adam
	valueOpt  *mlp.Adam

	lastObs   [][]float64
	timesteps int
	iteration int
	updates   int
}

// New builds an agent for the environment batch. The seed drives network
// initialization, action sampling and environment reseeding.
func New(params config.PPOParams, venv *vecenv.VecEnv, seed int64) *Agent {
	rng := rand.New(rand.NewSource(seed))
	policySizes := append([]int{venv.ObservationSize()}, params.HiddenSizes...)
	policySizes = append(policySizes, venv.ActionCount())
	valueSizes := append([]int{venv.ObservationSize()}, params.HiddenSizes...)
	valueSizes = append(valueSizes, 1)

	a := &Agent{
		params: params,
		venv:   venv,
		rng:    rng,
		seed:   seed,
		policy: mlp.New(rng, policySizes...),
		value:  mlp.New(rng, valueSizes...),
	}
	a.policyOpt = mlp.NewAdam(a.policy, params.LearningRate)
	a.valueOpt = mlp.NewAdam(a.value, params.LearningRate)
	return a
}

// Timesteps is the number of environment steps consumed so far.
func (a *Agent) Timesteps() int { return a.timesteps }

// Learn runs the collect/train loop until at least totalTimesteps
// environment steps have been consumed or the context is canceled. The
// monitor, when non-nil, is invoked after every iteration.
func (a *Agent) Learn(ctx context.Context, totalTimesteps int, monitor MonitorFunc) error {
	a.lastObs = a.venv.Reset(a.seed)
	buffer := newRolloutBuffer(a.params.RolloutSteps, a.venv.Len())

	for a.timesteps < totalTimesteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		episodes := a.collectRollouts(buffer)
		stats := a.train(buffer)

		a.iteration++
		stats.Iteration = a.iteration
		stats.Timesteps = a.timesteps
		stats.Updates = a.updates
		stats.Episodes = len(episodes)
		for _, ep := range episodes {
			stats.EpisodeReturns = append(stats.EpisodeReturns, ep.Return)
		}
		if monitor != nil {
			monitor(stats)
		}
	}
	return nil
}

// Predict returns the policy's action for a single observation, either the
// mode of the distribution or a sample from it.
func (a *Agent) Predict(obs []float64, deterministic bool) int {
	dist := newCategorical(a.policy.Predict(obs))
	if deterministic {
		return dist.argmax()
	}
	return dist.sample(a.rng)
}

// collectRollouts fills the buffer with one fixed-length rollout segment and
// returns the episodes that completed during it.
func (a *Agent) collectRollouts(buffer *rolloutBuffer) []vecenv.Episode {
	var finished []vecenv.Episode
	n := a.venv.Len()
	actions := make([]int, n)

	for t := 0; t < buffer.nSteps; t++ {
		logits := a.policy.Forward(batchOf(a.lastObs))
		values := a.values(a.lastObs)
		for i := 0; i < n; i++ {
			dist := newCategorical(mat.Row(nil, i, logits))
			actions[i] = dist.sample(a.rng)
			buffer.logProbs[t][i] = dist.logProb(actions[i])
			buffer.values[t][i] = values[i]
			buffer.actions[t][i] = actions[i]
		}
		buffer.obs[t] = a.lastObs

		res, episodes := a.venv.Step(actions)
		copy(buffer.rewards[t], res.Rewards)
		copy(buffer.dones[t], res.Dones)
		finished = append(finished, episodes...)
		a.lastObs = res.Obs
		a.timesteps += n
	}

	buffer.computeAdvantages(a.values(a.lastObs), a.params.Gamma, a.params.GAELambda)
	return finished
}

// train runs the minibatch epochs over the buffered rollout.
func (a *Agent) train(buffer *rolloutBuffer) IterationStats {
	obsSize := a.venv.ObservationSize()
	obsFlat, actions, oldLogProbs, advantages, returns := buffer.flatten(obsSize)
	n := buffer.size()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	var stats IterationStats
	batches := 0

epochs:
	for epoch := 0; epoch < a.params.Epochs; epoch++ {
		a.rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		for start := 0; start < n; start += a.params.BatchSize {
			end := start + a.params.BatchSize
			if end > n {
				end = n
			}
			batch := indices[start:end]
			pl, vl, ent, kl := a.trainMinibatch(batch, obsFlat, obsSize, actions, oldLogProbs, advantages, returns)

			stats.PolicyLoss += pl
			stats.ValueLoss += vl
			stats.Entropy += ent
			stats.ApproxKL = kl
			batches++
			a.updates++

			if a.params.TargetKL > 0 && kl > 1.5*a.params.TargetKL {
				break epochs
			}
		}
	}

	if batches > 0 {
		stats.PolicyLoss /= float64(batches)
		stats.ValueLoss /= float64(batches)
		stats.Entropy /= float64(batches)
	}
	return stats
}

// trainMinibatch performs one gradient step on both networks and returns the
// minibatch's policy loss, value loss, mean entropy and approximate KL.
func (a *Agent) trainMinibatch(batch []int, obsFlat []float64, obsSize int, actions []int, oldLogProbs, advantages, returns []float64) (policyLoss, valueLoss, entropy, approxKL float64) {
	b := len(batch)
	clip := a.params.ClipRange

	obs := mat.NewDense(b, obsSize, nil)
	adv := make([]float64, b)
	for row, idx := range batch {
		obs.SetRow(row, obsFlat[idx*obsSize:(idx+1)*obsSize])
		adv[row] = advantages[idx]
	}
	if a.params.NormalizeAdvantage {
		normalize(adv)
	}

	// Policy pass.
	logits := a.policy.Forward(obs)
	actionCount := a.venv.ActionCount()
	dLogits := mat.NewDense(b, actionCount, nil)
	scale := 1.0 / float64(b)

	for row, idx := range batch {
		dist := newCategorical(mat.Row(nil, row, logits))
		action := actions[idx]
		newLogProb := dist.logProb(action)
		logRatio := newLogProb - oldLogProbs[idx]
		ratio := math.Exp(logRatio)

		unclipped := ratio * adv[row]
		clippedRatio := math.Min(math.Max(ratio, 1-clip), 1+clip)
		clipped := clippedRatio * adv[row]
		policyLoss += -math.Min(unclipped, clipped) * scale
		entropy += dist.entropy() * scale
		approxKL += (ratio - 1 - logRatio) * scale

		// The clipped branch of the objective is constant in the
		// parameters, so only unclipped samples carry a policy gradient.
		pgCoef := 0.0
		if unclipped <= clipped {
			pgCoef = -adv[row] * ratio * scale
		}
		h := dist.entropy()
		for k := 0; k < actionCount; k++ {
			onehot := 0.0
			if k == action {
				onehot = 1
			}
			g := pgCoef * (onehot - dist.probs[k])
			g += a.params.EntropyCoef * dist.probs[k] * (dist.logProbs[k] + h) * scale
			dLogits.Set(row, k, g)
		}
	}

	a.policy.ZeroGrad()
	a.policy.Backward(dLogits)
	a.policy.ClipGradNorm(a.params.MaxGradNorm)
	a.policyOpt.Step()

	// Value pass.
	vOut := a.value.Forward(obs)
	dV := mat.NewDense(b, 1, nil)
	for row, idx := range batch {
		diff := vOut.At(row, 0) - returns[idx]
		valueLoss += a.params.ValueCoef * diff * diff * scale
		dV.Set(row, 0, a.params.ValueCoef*2*diff*scale)
	}
	a.value.ZeroGrad()
	a.value.Backward(dV)
	a.value.ClipGradNorm(a.params.MaxGradNorm)
	a.valueOpt.Step()

	return policyLoss, valueLoss, entropy, approxKL
}

// values returns the critic's estimates for a batch of observations.
func (a *Agent) values(obs [][]float64) []float64 {
	out := a.value.Forward(batchOf(obs))
	vals := make([]float64, len(obs))
	for i := range obs {
		vals[i] = out.At(i, 0)
	}
	return vals
}

// batchOf stacks row observations into a dense matrix.
func batchOf(obs [][]float64) *mat.Dense {
	m := mat.NewDense(len(obs), len(obs[0]), nil)
	for i, row := range obs {
		m.SetRow(i, row)
	}
	return m
}

// normalize standardizes the slice to zero mean and unit variance in place.
func normalize(xs []float64) {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	std := math.Sqrt(variance/float64(len(xs))) + 1e-8
	for i := range xs {
		xs[i] = (xs[i] - mean) / std
	}
}
