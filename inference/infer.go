// Package inference implements the sequential prediction stage of the classifier
package inference

import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/batch"
import "github.com/neurlang/seqclassifier/datasets"

// ErrNotTrained is returned when predicting without a trained model.
var ErrNotTrained = errors.New("cannot predict using untrained model")

// Model is a single lane stateful sequence classifier.
type Model interface {

	// ResetState zeroes the recurrent state.
	ResetState()

	// Predict returns a probability per chunk and timestep.
	Predict(x *batch.Tensor) (*batch.Tensor, error)
}

// Tensor lays a sequence out as a single lane of seq.Len() timesteps.
func Tensor(seq datasets.Sequence) *batch.Tensor {
	var x = batch.NewTensor(1, seq.Len(), seq.Width())
	for t := 0; t < seq.Len(); t++ {
		copy(x.Data[t*x.Width:(t+1)*x.Width], seq.X.RawRowView(t))
	}
	return x
}

// Predict scores every position of seq with m. The recurrent state is reset
// first, so the scores never depend on earlier calls. Scores keep the order
// and the index of seq.
//
// Predict mutates the state of m; calls sharing a model must not overlap.
func Predict(m Model, seq datasets.Sequence) (datasets.Scores, error) {
	if m == nil {
		return datasets.Scores{}, ErrNotTrained
	}
	if seq.X == nil || seq.Len() == 0 {
		return datasets.Scores{Index: seq.Index, Values: []float64{}}, nil
	}
	m.ResetState()
	y, err := m.Predict(Tensor(seq))
	if err != nil {
		return datasets.Scores{}, errors.Wrap(err, "predicting sequence")
	}
	return datasets.Scores{Index: seq.Index, Values: y.Lane(0)}, nil
}
