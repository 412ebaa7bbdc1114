// Package layer defines the time distributed layer and trainable parameter types
package layer

import "gonum.org/v1/gonum/mat"

// Layer is a sequence layer. A sequence is one Chunks × Width matrix per
// timestep, the rows being independent chunk lanes.
type Layer interface {

	// Forward maps the input sequence to the output sequence. Training
	// enables dropout and keeps what Backward needs.
	Forward(x []*mat.Dense, training bool) []*mat.Dense

	// Backward takes the loss gradient of the last Forward output, adds the
	// parameter gradients into Params and returns the gradient of the input.
	Backward(dy []*mat.Dense) []*mat.Dense

	// Params lists the trainable parameters in a fixed order.
	Params() []*Param

	// ResetState zeroes any recurrent state carried between calls.
	ResetState()

	// OutputSize is the feature width of the output.
	OutputSize() int
}
