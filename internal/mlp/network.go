// Package mlp implements the small dense networks used for policy and value
// function approximation: tanh hidden layers, linear output, manual
// backpropagation over gonum matrices, and an Adam optimizer.
package mlp

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Network is a fully-connected network with tanh hidden activations and a
// linear output layer. Forward caches the activations needed by Backward, so
// a Forward/Backward pair must not be interleaved with other calls.
type Network struct {
	sizes []int

	weights []*mat.Dense    // layer l maps (sizes[l] x sizes[l+1])
	biases  []*mat.VecDense // one bias per output unit of layer l
	gradW   []*mat.Dense
	gradB   []*mat.VecDense

	inputs []*mat.Dense // activation entering each layer during last Forward
}

// New builds a network with the given layer sizes (inputs first, outputs
// last) using Xavier-uniform weight initialization from the provided source.
func New(rng *rand.Rand, sizes ...int) *Network {
	if len(sizes) < 2 {
		panic("mlp: a network needs at least an input and an output layer")
	}
	n := &Network{sizes: sizes}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		w := mat.NewDense(in, out, nil)
		limit := math.Sqrt(6.0 / float64(in+out))
		for i := 0; i < in; i++ {
			for j := 0; j < out; j++ {
				w.Set(i, j, (2*rng.Float64()-1)*limit)
			}
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, mat.NewVecDense(out, nil))
		n.gradW = append(n.gradW, mat.NewDense(in, out, nil))
		n.gradB = append(n.gradB, mat.NewVecDense(out, nil))
	}
	return n
}

// NumInputs is the input width.
func (n *Network) NumInputs() int { return n.sizes[0] }

// NumOutputs is the output width.
func (n *Network) NumOutputs() int { return n.sizes[len(n.sizes)-1] }

// Forward runs a batch (rows are samples) through the network and returns
// the linear outputs.
func (n *Network) Forward(x *mat.Dense) *mat.Dense {
	n.inputs = n.inputs[:0]
	a := x
	last := len(n.weights) - 1
	for l, w := range n.weights {
		n.inputs = append(n.inputs, a)
		rows, _ := a.Dims()
		_, out := w.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(a, w)
		for i := 0; i < rows; i++ {
			for j := 0; j < out; j++ {
				v := z.At(i, j) + n.biases[l].AtVec(j)
				if l != last {
					v = math.Tanh(v)
				}
				z.Set(i, j, v)
			}
		}
		a = z
	}
	return a
}

// Predict is a single-sample convenience wrapper around Forward.
func (n *Network) Predict(obs []float64) []float64 {
	out := n.Forward(mat.NewDense(1, len(obs), obs))
	return mat.Row(nil, 0, out)
}

// Backward accumulates parameter gradients for the batch last passed to
// Forward, given the loss gradient with respect to the network outputs.
func (n *Network) Backward(dOut *mat.Dense) {
	delta := dOut
	for l := len(n.weights) - 1; l >= 0; l-- {
		in := n.inputs[l]
		rows, _ := delta.Dims()

		var gw mat.Dense
		gw.Mul(in.T(), delta)
		n.gradW[l].Add(n.gradW[l], &gw)

		_, out := delta.Dims()
		for j := 0; j < out; j++ {
			sum := 0.0
			for i := 0; i < rows; i++ {
				sum += delta.At(i, j)
			}
			n.gradB[l].SetVec(j, n.gradB[l].AtVec(j)+sum)
		}

		if l == 0 {
			break
		}
		var dA mat.Dense
		dA.Mul(delta, n.weights[l].T())
		// in holds the tanh outputs of layer l-1, so 1-in^2 is its derivative.
		r, c := dA.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				a := in.At(i, j)
				dA.Set(i, j, dA.At(i, j)*(1-a*a))
			}
		}
		delta = &dA
	}
}

// ZeroGrad clears accumulated gradients.
func (n *Network) ZeroGrad() {
	for l := range n.gradW {
		n.gradW[l].Zero()
		n.gradB[l].Zero()
	}
}

// params returns flat views over all parameters and their gradients, in a
// stable order, for the optimizer.
func (n *Network) params() (values, grads [][]float64) {
	for l := range n.weights {
		values = append(values, n.weights[l].RawMatrix().Data, n.biases[l].RawVector().Data)
		grads = append(grads, n.gradW[l].RawMatrix().Data, n.gradB[l].RawVector().Data)
	}
	return values, grads
}

// GradNorm is the global L2 norm over all accumulated gradients.
func (n *Network) GradNorm() float64 {
	_, grads := n.params()
	sum := 0.0
	for _, g := range grads {
		for _, v := range g {
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

// ClipGradNorm rescales gradients so their global L2 norm does not exceed
// maxNorm. A non-positive maxNorm disables clipping.
func (n *Network) ClipGradNorm(maxNorm float64) {
	if maxNorm <= 0 {
		return
	}
	norm := n.GradNorm()
	if norm <= maxNorm {
		return
	}
	scale := maxNorm / norm
	_, grads := n.params()
	for _, g := range grads {
		for i := range g {
			g[i] *= scale
		}
	}
}
