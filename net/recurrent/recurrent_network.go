// Package recurrent implements the stateful bidirectional recurrent network type
package recurrent

import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/batch"
import "github.com/neurlang/seqclassifier/datasets"
import "github.com/neurlang/seqclassifier/layer"
import "github.com/neurlang/seqclassifier/layer/full"
import "github.com/neurlang/seqclassifier/layer/lstm"
import "github.com/neurlang/seqclassifier/parallel"

// Architecture describes a network completely, apart from its parameters.
// Two networks built from architectures differing only in Chunks have
// parameters of identical shapes.
type Architecture struct {
	Inputs int `json:"inputs"` // feature width
	Chunks int `json:"chunks"` // lanes per batch

	Hidden           int     `json:"hidden"` // units per direction of the first recurrent layer
	Dropout          float64 `json:"dropout"`
	RecurrentDropout float64 `json:"recurrent_dropout"`

	StackedSizes        []int `json:"stacked_sizes,omitempty"`
	FullyConnectedSizes []int `json:"fully_connected_sizes,omitempty"`

	Seed int64 `json:"seed"`
}

// WithChunks returns a copy of the architecture with another lane count.
func (a Architecture) WithChunks(chunks int) Architecture {
	a.Chunks = chunks
	a.StackedSizes = append([]int(nil), a.StackedSizes...)
	a.FullyConnectedSizes = append([]int(nil), a.FullyConnectedSizes...)
	return a
}

// Network is a bidirectional LSTM, optional stacked bidirectional LSTMs,
// optional sigmoid dense layers and a single sigmoid output unit, applied
// to every timestep. Recurrent state persists across calls until ResetState.
//
// A Network is not safe for concurrent use.
type Network struct {
	arch   Architecture
	layers []layer.Layer
}

// New builds a network with freshly initialized parameters.
func New(arch Architecture) (*Network, error) {
	if arch.Inputs < 1 {
		return nil, errors.Wrapf(datasets.ErrShape, "input width %d below 1", arch.Inputs)
	}
	if arch.Chunks < 1 {
		return nil, errors.Wrapf(datasets.ErrShape, "chunk count %d below 1", arch.Chunks)
	}
	var rng = rand.New(rand.NewSource(arch.Seed))
	var f = &Network{arch: arch}

	first, err := lstm.New(arch.Inputs, arch.Hidden, arch.Dropout, arch.RecurrentDropout, rng)
	if err != nil {
		return nil, err
	}
	f.NewLayer(first)
	for _, size := range arch.StackedSizes {
		l, err := lstm.New(f.OutputSize(), size, 0, 0, rng)
		if err != nil {
			return nil, err
		}
		f.NewLayer(l)
	}
	for _, size := range arch.FullyConnectedSizes {
		l, err := full.New(f.OutputSize(), size, rng)
		if err != nil {
			return nil, err
		}
		f.NewLayer(l)
	}
	out, err := full.New(f.OutputSize(), 1, rng)
	if err != nil {
		return nil, err
	}
	f.NewLayer(out)
	return f, nil
}

// MustNew is New that panics on error.
func MustNew(arch Architecture) *Network {
	f, err := New(arch)
	if err != nil {
		panic(err.Error())
	}
	return f
}

// NewLayer adds a layer to the end of network
func (f *Network) NewLayer(l layer.Layer) {
	f.layers = append(f.layers, l)
}

// Architecture returns the architecture the network was built from.
func (f *Network) Architecture() Architecture {
	return f.arch
}

// LenLayers returns the number of layers.
func (f *Network) LenLayers() int {
	return len(f.layers)
}

// OutputSize is the output width of the last layer, or the input width of
// an empty network.
func (f *Network) OutputSize() int {
	if len(f.layers) == 0 {
		return f.arch.Inputs
	}
	return f.layers[len(f.layers)-1].OutputSize()
}

// ResetState zeroes the recurrent state of every lane.
func (f *Network) ResetState() {
	for _, l := range f.layers {
		l.ResetState()
	}
}

func (f *Network) check(x *batch.Tensor) error {
	if x.Chunks != f.arch.Chunks {
		return errors.Wrapf(datasets.ErrShape, "batch of %d chunks fed to a network of %d", x.Chunks, f.arch.Chunks)
	}
	if x.Width != f.arch.Inputs {
		return errors.Wrapf(datasets.ErrShape, "batch of width %d fed to a network of width %d", x.Width, f.arch.Inputs)
	}
	return nil
}

// forward returns one Chunks × 1 probability matrix per timestep.
func (f *Network) forward(x *batch.Tensor, training bool) ([]*mat.Dense, error) {
	if err := f.check(x); err != nil {
		return nil, err
	}
	var seq = x.StepViews()
	for _, l := range f.layers {
		seq = l.Forward(seq, training)
	}
	return seq, nil
}

// Predict returns the probability of every chunk and timestep as a
// Chunks × Steps × 1 tensor, advancing the recurrent state.
func (f *Network) Predict(x *batch.Tensor) (*batch.Tensor, error) {
	probs, err := f.forward(x, false)
	if err != nil {
		return nil, err
	}
	var out = batch.NewTensor(x.Chunks, x.Steps, 1)
	for t, p := range probs {
		for c := 0; c < x.Chunks; c++ {
			out.Set(c, t, 0, p.At(c, 0))
		}
	}
	return out, nil
}

// Params lists the trainable parameters of all layers in order.
func (f *Network) Params() (o []*layer.Param) {
	for _, l := range f.layers {
		o = append(o, l.Params()...)
	}
	return
}

// Parameters returns copies of all parameter values in order.
func (f *Network) Parameters() []*mat.Dense {
	var params = f.Params()
	var o = make([]*mat.Dense, len(params))
	for i, p := range params {
		o[i] = mat.DenseCopyOf(p.Value)
	}
	return o
}

// SetParameters overwrites all parameter values. The values must match the
// parameters in count and shape.
func (f *Network) SetParameters(values []*mat.Dense) error {
	var params = f.Params()
	if len(values) != len(params) {
		return errors.Wrapf(datasets.ErrShape, "got %d parameter tensors, network has %d", len(values), len(params))
	}
	for i, p := range params {
		r, c := p.Dims()
		vr, vc := values[i].Dims()
		if r != vr || c != vc {
			return errors.Wrapf(datasets.ErrShape, "parameter %s is %dx%d, got %dx%d", p.Name, r, c, vr, vc)
		}
	}
	for i, p := range params {
		p.Value.Copy(values[i])
	}
	return nil
}

// Fingerprint identifies the current parameter values.
func (f *Network) Fingerprint() [32]byte {
	var params = f.Params()
	var values = make([]*mat.Dense, len(params))
	for i, p := range params {
		values[i] = p.Value
	}
	return parallel.Fingerprint(values)
}

// Synchronize copies every parameter of from into to, whatever their chunk
// counts, and verifies the copy.
func Synchronize(from, to *Network) error {
	if err := to.SetParameters(from.Parameters()); err != nil {
		return errors.Wrap(err, "synchronizing networks")
	}
	if from.Fingerprint() != to.Fingerprint() {
		return errors.New("synchronized networks differ")
	}
	return nil
}
