package ppo

import (
	"math"
	"math/rand"
)

// categorical is a discrete action distribution derived from one row of
// policy logits.
type categorical struct {
	probs    []float64
	logProbs []float64
}

// newCategorical applies a numerically stable softmax to the logits.
func newCategorical(logits []float64) categorical {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	probs := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		probs[i] = math.Exp(v - maxLogit)
		sum += probs[i]
	}
	logProbs := make([]float64, len(logits))
	logSum := math.Log(sum)
	for i, v := range logits {
		probs[i] /= sum
		logProbs[i] = v - maxLogit - logSum
	}
	return categorical{probs: probs, logProbs: logProbs}
}

// sample draws an action index.
func (c categorical) sample(rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	for i, p := range c.probs {
		acc += p
		if u < acc {
			return i
		}
	}
	return len(c.probs) - 1
}

// argmax returns the most likely action.
func (c categorical) argmax() int {
	best := 0
	for i, p := range c.probs {
		if p > c.probs[best] {
			best = i
		}
	}
	return best
}

// logProb returns the log probability of the given action.
func (c categorical) logProb(action int) float64 {
	return c.logProbs[action]
}

// entropy returns the Shannon entropy in nats.
func (c categorical) entropy() float64 {
	h := 0.0
	for i, p := range c.probs {
		if p > 0 {
			h -= p * c.logProbs[i]
		}
	}
	return h
}
