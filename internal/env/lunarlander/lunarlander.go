// Package lunarlander implements a 2D rocket-landing control task.
//
// The craft starts above a landing pad with a randomized initial velocity and
// must come to rest on the pad using a main engine and two side thrusters.
// Observations are 8-dimensional (position, velocity, attitude, leg contact)
// and the action space is 4 discrete actions. Reward follows the classic
// shaping scheme: potential-based progress toward the pad, per-frame fuel
// costs, +100 for a safe landing and -100 for a crash. The dynamics are a
// simplified rigid-body model rather than a full physics engine.
package lunarlander

import (
	"math"
	"math/rand"

	"github.com/zhangsongtt/rlop/internal/env"
)

// Discrete actions.
const (
	ActionNoop = iota
	ActionFireLeft
	ActionFireMain
	ActionFireRight
)

const (
	dt = 1.0 / 50.0 // 50 frames per second

	gravity     = 1.0
	mainAccel   = 2.2
	sideAccel   = 0.12
	sideTorque  = 3.0
	legReach    = 0.02 // height below which legs make ground contact
	maxTiltRad  = 0.4  // steeper than this at touchdown is a crash
	maxLandVel  = 0.5
	restVel     = 0.05
	fuelMain    = 0.3
	fuelSide    = 0.03
	maxSteps    = 1000
	outOfBounds = 1.0
)

// Lander is a single lunar-lander episode. Not safe for concurrent use.
type Lander struct {
	rng *rand.Rand

	x, y         float64
	vx, vy       float64
	angle, omega float64
	leg1, leg2   bool

	prevShaping float64
	steps       int
	done        bool
}

// New returns an unseeded lander; Reset must be called before Step.
func New() *Lander {
	return &Lander{rng: rand.New(rand.NewSource(0)), done: true}
}

// Maker adapts New to the env.Maker constructor shape.
func Maker() env.Env { return New() }

// Reset reseeds the episode and returns the initial observation.
func (l *Lander) Reset(seed int64) []float64 {
	l.rng = rand.New(rand.NewSource(seed))

	l.x = l.uniform(-0.3, 0.3)
	l.y = 1.3
	l.vx = l.uniform(-0.5, 0.5)
	l.vy = l.uniform(-0.5, 0.0)
	l.angle = l.uniform(-0.1, 0.1)
	l.omega = l.uniform(-0.1, 0.1)
	l.leg1, l.leg2 = false, false
	l.steps = 0
	l.done = false
	l.prevShaping = l.shaping()

	return l.observation()
}

// Step advances the simulation one frame.
func (l *Lander) Step(action int) ([]float64, float64, bool) {
	if l.done {
		panic("lunarlander: Step called on finished episode")
	}

	ax, ay := 0.0, -gravity
	alpha := 0.0
	fuel := 0.0

	switch action {
	case ActionFireMain:
		// Thrust along the body's up axis.
		ax += mainAccel * -math.Sin(l.angle)
		ay += mainAccel * math.Cos(l.angle)
		fuel = fuelMain
	case ActionFireLeft:
		ax += sideAccel * math.Cos(l.angle)
		ay += sideAccel * math.Sin(l.angle)
		alpha += sideTorque
		fuel = fuelSide
	case ActionFireRight:
		ax -= sideAccel * math.Cos(l.angle)
		ay -= sideAccel * math.Sin(l.angle)
		alpha -= sideTorque
		fuel = fuelSide
	case ActionNoop:
	default:
		panic("lunarlander: invalid action")
	}

	l.vx += ax * dt
	l.vy += ay * dt
	l.omega += alpha * dt
	l.x += l.vx * dt
	l.y += l.vy * dt
	l.angle += l.omega * dt
	l.steps++

	var terminal float64
	if l.y <= legReach {
		l.y = 0
		speed := math.Hypot(l.vx, l.vy)
		if speed > maxLandVel || math.Abs(l.angle) > maxTiltRad {
			l.done = true
			terminal = -100
		} else {
			// Touched down gently: legs take the load, body settles.
			l.leg1 = true
			l.leg2 = math.Abs(l.angle) < maxTiltRad/2
			l.vy = 0
			l.omega = 0
			l.vx *= 0.8
			if l.leg2 && math.Abs(l.vx) < restVel {
				l.done = true
				terminal = 100
			}
		}
	} else {
		l.leg1, l.leg2 = false, false
	}

	if !l.done && math.Abs(l.x) >= outOfBounds {
		l.done = true
		terminal = -100
	}
	if !l.done && l.steps >= maxSteps {
		l.done = true
	}

	shaping := l.shaping()
	reward := shaping - l.prevShaping - fuel + terminal
	l.prevShaping = shaping

	return l.observation(), reward, l.done
}

// ObservationSize implements env.Env.
func (l *Lander) ObservationSize() int { return 8 }

// ActionCount implements env.Env.
func (l *Lander) ActionCount() int { return 4 }

// shaping is the potential used for progress rewards: closer, slower and
// more upright is better, with a bonus per leg on the ground.
func (l *Lander) shaping() float64 {
	s := -100*math.Hypot(l.x, l.y) - 100*math.Hypot(l.vx, l.vy) - 100*math.Abs(l.angle)
	if l.leg1 {
		s += 10
	}
	if l.leg2 {
		s += 10
	}
	return s
}

func (l *Lander) observation() []float64 {
	obs := []float64{l.x, l.y, l.vx, l.vy, l.angle, l.omega, 0, 0}
	if l.leg1 {
		obs[6] = 1
	}
	if l.leg2 {
		obs[7] = 1
	}
	return obs
}

func (l *Lander) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*l.rng.Float64()
}
