package ppo

// rolloutBuffer stores one rollout of nSteps transitions per environment
// slot and derives advantage estimates from it.
type rolloutBuffer struct {
	nSteps, nEnvs int

	obs      [][][]float64 // [step][slot][feature]
	actions  [][]int
	logProbs [][]float64
	values   [][]float64
	rewards  [][]float64
	dones    [][]bool // episode ended at this transition

	advantages [][]float64
	returns    [][]float64
}

func newRolloutBuffer(nSteps, nEnvs int) *rolloutBuffer {
	b := &rolloutBuffer{nSteps: nSteps, nEnvs: nEnvs}
	b.obs = make([][][]float64, nSteps)
	b.actions = make([][]int, nSteps)
	b.logProbs = make([][]float64, nSteps)
	b.values = make([][]float64, nSteps)
	b.rewards = make([][]float64, nSteps)
	b.dones = make([][]bool, nSteps)
	b.advantages = make([][]float64, nSteps)
	b.returns = make([][]float64, nSteps)
	for t := 0; t < nSteps; t++ {
		b.actions[t] = make([]int, nEnvs)
		b.logProbs[t] = make([]float64, nEnvs)
		b.values[t] = make([]float64, nEnvs)
		b.rewards[t] = make([]float64, nEnvs)
		b.dones[t] = make([]bool, nEnvs)
		b.advantages[t] = make([]float64, nEnvs)
		b.returns[t] = make([]float64, nEnvs)
	}
	return b
}

// computeAdvantages runs generalized advantage estimation backwards over the
// rollout. lastValues are the critic's estimates for the observations that
// follow the final stored transition; transitions flagged done do not
// bootstrap across the episode boundary.
func (b *rolloutBuffer) computeAdvantages(lastValues []float64, gamma, lam float64) {
	for i := 0; i < b.nEnvs; i++ {
		gae := 0.0
		for t := b.nSteps - 1; t >= 0; t-- {
			nonterminal := 1.0
			if b.dones[t][i] {
				nonterminal = 0
			}
			nextValue := lastValues[i]
			if t < b.nSteps-1 {
				nextValue = b.values[t+1][i]
			}
			delta := b.rewards[t][i] + gamma*nextValue*nonterminal - b.values[t][i]
			gae = delta + gamma*lam*nonterminal*gae
			b.advantages[t][i] = gae
			b.returns[t][i] = gae + b.values[t][i]
		}
	}
}

// size is the number of stored transitions.
func (b *rolloutBuffer) size() int { return b.nSteps * b.nEnvs }

// flatten lays the rollout out as parallel sample-major slices for
// minibatching. Observations are flattened row-major into one slice.
func (b *rolloutBuffer) flatten(obsSize int) (obs []float64, actions []int, logProbs, advantages, returns []float64) {
	n := b.size()
	obs = make([]float64, 0, n*obsSize)
	actions = make([]int, 0, n)
	logProbs = make([]float64, 0, n)
	advantages = make([]float64, 0, n)
	returns = make([]float64, 0, n)
	for t := 0; t < b.nSteps; t++ {
		for i := 0; i < b.nEnvs; i++ {
			obs = append(obs, b.obs[t][i]...)
			actions = append(actions, b.actions[t][i])
			logProbs = append(logProbs, b.logProbs[t][i])
			advantages = append(advantages, b.advantages[t][i])
			returns = append(returns, b.returns[t][i])
		}
	}
	return obs, actions, logProbs, advantages, returns
}
