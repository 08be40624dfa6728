// Package cartpole implements the classic pole-balancing control task.
//
// A pole is hinged to a cart moving along a frictionless track; the agent
// pushes the cart left or right and earns +1 per frame until the pole tips
// over, the cart leaves the track, or the step limit is reached. The cheap
// dynamics make it the environment of choice for tests and smoke runs.
package cartpole

import (
	"math"
	"math/rand"

	"github.com/zhangsongtt/rlop/internal/env"
)

const (
	gravityAccel = 9.8
	cartMass     = 1.0
	poleMass     = 0.1
	poleHalfLen  = 0.5
	forceMag     = 10.0
	tau          = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12 * 2 * math.Pi / 360
	maxSteps       = 500
)

// CartPole is a single pole-balancing episode. Not safe for concurrent use.
type CartPole struct {
	rng *rand.Rand

	x, xDot, theta, thetaDot float64
	steps                    int
	done                     bool
}

// New returns an unseeded cartpole; Reset must be called before Step.
func New() *CartPole {
	return &CartPole{rng: rand.New(rand.NewSource(0)), done: true}
}

// Maker adapts New to the env.Maker constructor shape.
func Maker() env.Env { return New() }

// Reset reseeds the episode and returns the initial observation.
func (c *CartPole) Reset(seed int64) []float64 {
	c.rng = rand.New(rand.NewSource(seed))
	c.x = c.uniform(-0.05, 0.05)
	c.xDot = c.uniform(-0.05, 0.05)
	c.theta = c.uniform(-0.05, 0.05)
	c.thetaDot = c.uniform(-0.05, 0.05)
	c.steps = 0
	c.done = false
	return c.observation()
}

// Step advances the simulation one frame using Euler integration.
func (c *CartPole) Step(action int) ([]float64, float64, bool) {
	if c.done {
		panic("cartpole: Step called on finished episode")
	}

	force := forceMag
	if action == 0 {
		force = -forceMag
	} else if action != 1 {
		panic("cartpole: invalid action")
	}

	totalMass := cartMass + poleMass
	poleMassLen := poleMass * poleHalfLen

	cosTheta := math.Cos(c.theta)
	sinTheta := math.Sin(c.theta)
	temp := (force + poleMassLen*c.thetaDot*c.thetaDot*sinTheta) / totalMass
	thetaAcc := (gravityAccel*sinTheta - cosTheta*temp) /
		(poleHalfLen * (4.0/3.0 - poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLen*thetaAcc*cosTheta/totalMass

	c.x += tau * c.xDot
	c.xDot += tau * xAcc
	c.theta += tau * c.thetaDot
	c.thetaDot += tau * thetaAcc
	c.steps++

	c.done = c.x < -xThreshold || c.x > xThreshold ||
		c.theta < -thetaThreshold || c.theta > thetaThreshold ||
		c.steps >= maxSteps

	return c.observation(), 1.0, c.done
}

// ObservationSize implements env.Env.
func (c *CartPole) ObservationSize() int { return 4 }

// ActionCount implements env.Env.
func (c *CartPole) ActionCount() int { return 2 }

func (c *CartPole) observation() []float64 {
	return []float64{c.x, c.xDot, c.theta, c.thetaDot}
}

func (c *CartPole) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}
