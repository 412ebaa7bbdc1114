// Package datasets implements the labeled sequence dataset types
package datasets

import "math"
import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// Sequence is an ordered list of feature vectors, one row per position.
type Sequence struct {
	// Index optionally names each position (e.g. a protein domain id). It is
	// either empty or has exactly one entry per row of X.
	Index []string

	// X holds one feature vector per row.
	X *mat.Dense
}

// Len returns the number of positions in the sequence.
func (s Sequence) Len() int {
	if s.X == nil {
		return 0
	}
	r, _ := s.X.Dims()
	return r
}

// Width returns the feature width of the sequence.
func (s Sequence) Width() int {
	if s.X == nil {
		return 0
	}
	_, c := s.X.Dims()
	return c
}

// Labels is a binary label per sequence position.
type Labels []float64

// Sample is a sequence together with its labels.
type Sample struct {
	X Sequence
	Y Labels
}

// Len returns the number of positions in the sample.
func (s Sample) Len() int {
	return s.X.Len()
}

// NewSamples pairs sequences with labels. It fails when the lists differ in
// size, when a label sequence is not as long as its sequence, or when the
// feature width differs between sequences.
func NewSamples(x []Sequence, y []Labels) ([]Sample, error) {
	if len(x) != len(y) {
		return nil, errors.Wrapf(ErrShape, "got %d sequences but %d label sequences", len(x), len(y))
	}
	var out = make([]Sample, len(x))
	var width, first = 0, -1
	for i := range x {
		if x[i].Len() != len(y[i]) {
			return nil, errors.Wrapf(ErrShape, "sequence %d has %d positions but %d labels", i, x[i].Len(), len(y[i]))
		}
		if len(x[i].Index) != 0 && len(x[i].Index) != x[i].Len() {
			return nil, errors.Wrapf(ErrShape, "sequence %d has %d index entries for %d positions", i, len(x[i].Index), x[i].Len())
		}
		if x[i].Len() > 0 {
			if first < 0 {
				width, first = x[i].Width(), i
			} else if x[i].Width() != width {
				return nil, errors.Wrapf(ErrShape, "sequence %d has width %d, sequence %d has %d", i, x[i].Width(), first, width)
			}
		}
		out[i] = Sample{X: x[i], Y: y[i]}
	}
	return out, nil
}

// Width reports the feature width shared by samples, 0 when no sample has a
// position.
func Width(samples []Sample) int {
	for _, s := range samples {
		if s.Len() > 0 {
			return s.X.Width()
		}
	}
	return 0
}

// TotalLen sums the lengths of all samples.
func TotalLen(samples []Sample) (o int) {
	for _, s := range samples {
		o += s.Len()
	}
	return
}

// LabelsOf extracts the label sequences of samples.
func LabelsOf(samples []Sample) []Labels {
	var out = make([]Labels, len(samples))
	for i := range samples {
		out[i] = samples[i].Y
	}
	return out
}

// SplitDataset splits samples into a training and a test part. The test part
// receives ceil(fraction*n) randomly chosen samples and the rest is training.
func SplitDataset(samples []Sample, fraction float64, rng *rand.Rand) (train, test []Sample, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, errors.Wrapf(ErrShape, "test fraction %v outside (0, 1)", fraction)
	}
	var n = len(samples)
	var nTest = int(math.Ceil(fraction * float64(n)))
	if n > 0 && nTest >= n {
		return nil, nil, errors.Wrapf(ErrShape, "test fraction %v leaves no training samples out of %d", fraction, n)
	}
	var perm = rng.Perm(n)
	test = make([]Sample, 0, nTest)
	train = make([]Sample, 0, n-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	return train, test, nil
}

// Scores is the per-position output of a prediction.
type Scores struct {
	Index  []string
	Values []float64
}
