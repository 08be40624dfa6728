// Package evalpolicy measures a trained policy's performance over a batch
// of fresh evaluation episodes.
package evalpolicy

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/zhangsongtt/rlop/internal/env"
)

// Policy selects one action per observation.
type Policy interface {
	Predict(obs []float64, deterministic bool) int
}

// Evaluate runs the given number of deterministic episodes of e under the policy,
// seeding episode k with seed+k, and returns the mean and standard deviation
// of the episode returns.
func Evaluate(ctx context.Context, policy Policy, e env.Env, episodes int, seed int64) (mean, std float64, err error) {
	returns := make([]float64, 0, episodes)
	for k := 0; k < episodes; k++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		obs := e.Reset(seed + int64(k))
		total := 0.0
		for {
			action := policy.Predict(obs, true)
			next, reward, done := e.Step(action)
			total += reward
			if done {
				break
			}
			obs = next
		}
		returns = append(returns, total)
	}
	mean, std = stat.MeanStdDev(returns, nil)
	if episodes < 2 {
		std = 0
	}
	return mean, std, nil
}
