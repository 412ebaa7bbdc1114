// Package batch assembles labeled sequences into fixed-shape training batches
// for stateful recurrent networks.
package batch

import "gonum.org/v1/gonum/mat"

// Tensor is a Chunks × Steps × Width block of values. It is stored time-major,
// so all chunk lanes of one timestep are contiguous.
type Tensor struct {
	Chunks int
	Steps  int
	Width  int
	Data   []float64
}

// NewTensor allocates a zeroed tensor.
func NewTensor(chunks, steps, width int) *Tensor {
	return &Tensor{
		Chunks: chunks,
		Steps:  steps,
		Width:  width,
		Data:   make([]float64, chunks*steps*width),
	}
}

// Shape returns the chunk, timestep and feature counts.
func (x *Tensor) Shape() (chunks, steps, width int) {
	return x.Chunks, x.Steps, x.Width
}

func (x *Tensor) offset(c, t, f int) int {
	return (t*x.Chunks+c)*x.Width + f
}

// At returns the value at chunk c, timestep t, feature f.
func (x *Tensor) At(c, t, f int) float64 {
	return x.Data[x.offset(c, t, f)]
}

// Set stores v at chunk c, timestep t, feature f.
func (x *Tensor) Set(c, t, f int, v float64) {
	x.Data[x.offset(c, t, f)] = v
}

// Step returns timestep t as a Chunks × Width matrix sharing the tensor memory.
func (x *Tensor) Step(t int) *mat.Dense {
	var n = x.Chunks * x.Width
	return mat.NewDense(x.Chunks, x.Width, x.Data[t*n:(t+1)*n])
}

// StepViews returns every timestep as a matrix view, see Step.
func (x *Tensor) StepViews() []*mat.Dense {
	var out = make([]*mat.Dense, x.Steps)
	for t := range out {
		out[t] = x.Step(t)
	}
	return out
}

// Lane copies chunk c out as a Steps × Width row-major slice.
func (x *Tensor) Lane(c int) []float64 {
	var out = make([]float64, 0, x.Steps*x.Width)
	for t := 0; t < x.Steps; t++ {
		var o = x.offset(c, t, 0)
		out = append(out, x.Data[o:o+x.Width]...)
	}
	return out
}

// Batch is one training step: inputs, labels and optional temporal weights.
type Batch struct {
	X *Tensor // Chunks × Steps × features
	Y *Tensor // Chunks × Steps × 1

	// W holds one weight per chunk and timestep (chunk-major), nil when unweighted.
	W []float64
}

// Weight returns the sample weight of chunk c at timestep t.
func (b *Batch) Weight(c, t int) float64 {
	if b.W == nil {
		return 1
	}
	return b.W[c*b.Y.Steps+t]
}
