// Package full implements a time distributed fully connected layer
package full

import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"

// FullLayer applies the same dense sigmoid unit block to every timestep.
type FullLayer struct {
	inputs int
	size   int

	kernel *layer.Param // inputs × size
	bias   *layer.Param // 1 × size

	// last training call
	x []*mat.Dense
	y []*mat.Dense
}

// MustNew creates a new full layer of size sigmoid units
func MustNew(inputs, size int, rng *rand.Rand) *FullLayer {
	o, err := New(inputs, size, rng)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new full layer of size sigmoid units, Glorot uniform initialized
func New(inputs, size int, rng *rand.Rand) (o *FullLayer, err error) {
	if inputs < 1 || size < 1 {
		return nil, errors.Errorf("full layer needs positive sizes, got %d inputs and %d units", inputs, size)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	o = new(FullLayer)
	o.inputs = inputs
	o.size = size
	o.kernel = layer.NewParam("dense/kernel", inputs, size)
	o.bias = layer.NewParam("dense/bias", 1, size)
	layer.GlorotUniform(rng, o.kernel.Value)
	return
}

// Forward computes sigmoid(x·W + b) per timestep.
func (f *FullLayer) Forward(x []*mat.Dense, training bool) []*mat.Dense {
	var y = make([]*mat.Dense, len(x))
	var bias = f.bias.Value.RawRowView(0)
	for t := range x {
		y[t] = new(mat.Dense)
		y[t].Mul(x[t], f.kernel.Value)
		y[t].Apply(func(_, j int, v float64) float64 {
			return layer.Sigmoid(v + bias[j])
		}, y[t])
	}
	if training {
		f.x, f.y = x, y
	} else {
		f.x, f.y = nil, nil
	}
	return y
}

// Backward accumulates the kernel and bias gradients of the last training call.
func (f *FullLayer) Backward(dy []*mat.Dense) []*mat.Dense {
	var dx = make([]*mat.Dense, len(dy))
	var gb = f.bias.Grad.RawRowView(0)
	for t := range dy {
		var dz mat.Dense
		dz.Apply(func(i, j int, v float64) float64 {
			var s = f.y[t].At(i, j)
			return v * s * (1 - s)
		}, dy[t])
		var gk mat.Dense
		gk.Mul(f.x[t].T(), &dz)
		f.kernel.Grad.Add(f.kernel.Grad, &gk)
		r, _ := dz.Dims()
		for i := 0; i < r; i++ {
			for j, v := range dz.RawRowView(i) {
				gb[j] += v
			}
		}
		dx[t] = new(mat.Dense)
		dx[t].Mul(&dz, f.kernel.Value.T())
	}
	return dx
}

// Params returns the kernel and the bias.
func (f *FullLayer) Params() []*layer.Param {
	return []*layer.Param{f.kernel, f.bias}
}

// ResetState does nothing, the layer has no state.
func (f *FullLayer) ResetState() {}

// OutputSize is the number of units.
func (f *FullLayer) OutputSize() int {
	return f.size
}

var _ layer.Layer = (*FullLayer)(nil)
