// Package lstm implements a stateful bidirectional LSTM layer
package lstm

import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"
import "github.com/neurlang/seqclassifier/parallel"

// Bidirectional runs a forward and a backward LSTM over the same sequence and
// concatenates their outputs per timestep. Each direction keeps its own
// per-lane state between calls until ResetState.
type Bidirectional struct {
	forward  *direction
	backward *direction

	dropout          float64
	recurrentDropout float64
	rng              *rand.Rand
}

// New creates a bidirectional LSTM of units per direction. Kernels are Glorot
// uniform, recurrent kernels orthogonal, and the forget gate bias starts at 1.
func New(inputs, units int, dropout, recurrentDropout float64, rng *rand.Rand) (*Bidirectional, error) {
	if inputs < 1 || units < 1 {
		return nil, errors.Errorf("lstm needs positive sizes, got %d inputs and %d units", inputs, units)
	}
	if dropout < 0 || dropout >= 1 || recurrentDropout < 0 || recurrentDropout >= 1 {
		return nil, errors.Errorf("dropout rates %v and %v outside [0, 1)", dropout, recurrentDropout)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	o := &Bidirectional{
		forward:          newDirection("forward_lstm", inputs, units, false),
		backward:         newDirection("backward_lstm", inputs, units, true),
		dropout:          dropout,
		recurrentDropout: recurrentDropout,
		rng:              rng,
	}
	for _, d := range []*direction{o.forward, o.backward} {
		layer.GlorotUniform(rng, d.kernel.Value)
		layer.Orthogonal(rng, d.recurrent.Value)
		for j := units; j < 2*units; j++ {
			d.bias.Value.Set(0, j, 1)
		}
	}
	return o, nil
}

// MustNew is New that panics on error.
func MustNew(inputs, units int, dropout, recurrentDropout float64, rng *rand.Rand) *Bidirectional {
	o, err := New(inputs, units, dropout, recurrentDropout, rng)
	if err != nil {
		panic(err.Error())
	}
	return o
}

func (b *Bidirectional) directions() [2]*direction {
	return [2]*direction{b.forward, b.backward}
}

// Forward runs both directions concurrently. Dropout masks are drawn once per
// call and shared by all timesteps of the call.
func (b *Bidirectional) Forward(x []*mat.Dense, training bool) []*mat.Dense {
	if len(x) == 0 {
		return nil
	}
	rows, _ := x[0].Dims()
	for _, d := range b.directions() {
		if training {
			d.maskX = layer.DropoutMask(b.rng, rows, d.inputs, b.dropout)
			d.maskH = layer.DropoutMask(b.rng, rows, d.units, b.recurrentDropout)
		} else {
			d.maskX, d.maskH = nil, nil
		}
	}
	var outs [2][]*mat.Dense
	parallel.ForEach(2, parallel.Threads(), func(i int) {
		outs[i] = b.directions()[i].forward(x, training)
	})
	var y = make([]*mat.Dense, len(x))
	for t := range y {
		y[t] = new(mat.Dense)
		y[t].Augment(outs[0][t], outs[1][t])
	}
	return y
}

// Backward splits dy between the directions and sums their input gradients.
func (b *Bidirectional) Backward(dy []*mat.Dense) []*mat.Dense {
	if len(dy) == 0 {
		return nil
	}
	rows, _ := dy[0].Dims()
	var u = b.forward.units
	var halves [2][]*mat.Dense
	for i := range halves {
		halves[i] = make([]*mat.Dense, len(dy))
		for t := range dy {
			halves[i][t] = dy[t].Slice(0, rows, i*u, (i+1)*u).(*mat.Dense)
		}
	}
	var dxs [2][]*mat.Dense
	parallel.ForEach(2, parallel.Threads(), func(i int) {
		dxs[i] = b.directions()[i].backward(halves[i])
	})
	for t := range dxs[0] {
		dxs[0][t].Add(dxs[0][t], dxs[1][t])
	}
	return dxs[0]
}

// Params returns the forward then the backward kernel, recurrent kernel and bias.
func (b *Bidirectional) Params() []*layer.Param {
	return append(b.forward.params(), b.backward.params()...)
}

// ResetState zeroes the state of both directions.
func (b *Bidirectional) ResetState() {
	b.forward.resetState()
	b.backward.resetState()
}

// OutputSize is twice the units.
func (b *Bidirectional) OutputSize() int {
	return 2 * b.forward.units
}

// Units per direction.
func (b *Bidirectional) Units() int {
	return b.forward.units
}

var _ layer.Layer = (*Bidirectional)(nil)
