package mlp

import "math"

// Adam applies the Adam update rule to one network's parameters. The moment
// buffers alias the network's parameter layout, so an Adam instance must
// outlive any parameter reshaping (networks here never reshape).
type Adam struct {
	net *Network

	LearningRate float64
	beta1        float64
	beta2        float64
	eps          float64

	step int
	m    [][]float64
	v    [][]float64
}

// NewAdam binds an optimizer to a network with the usual Adam defaults.
func NewAdam(net *Network, learningRate float64) *Adam {
	values, _ := net.params()
	a := &Adam{
		net:          net,
		LearningRate: learningRate,
		beta1:        0.9,
		beta2:        0.999,
		eps:          1e-8,
	}
	for _, p := range values {
		a.m = append(a.m, make([]float64, len(p)))
		a.v = append(a.v, make([]float64, len(p)))
	}
	return a
}

// Step applies one update from the network's accumulated gradients and
// leaves the gradients untouched; callers zero them between batches.
func (a *Adam) Step() {
	a.step++
	values, grads := a.net.params()
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))
	for p := range values {
		param, grad := values[p], grads[p]
		m, v := a.m[p], a.v[p]
		for i, g := range grad {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			mHat := m[i] / c1
			vHat := v[i] / c2
			param[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}
