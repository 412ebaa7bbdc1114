package datasets

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// ToSequences converts a list-typed collection into sequences. Accepted are
// []Sequence, []*mat.Dense, []mat.Matrix and [][][]float64 (positions × features
// per sequence). Anything else, including a single matrix, is ErrInputType.
func ToSequences(v interface{}) ([]Sequence, error) {
	switch x := v.(type) {
	case []Sequence:
		return x, nil
	case []*mat.Dense:
		var out = make([]Sequence, len(x))
		for i := range x {
			out[i] = Sequence{X: x[i]}
		}
		return out, nil
	case []mat.Matrix:
		var out = make([]Sequence, len(x))
		for i := range x {
			out[i] = Sequence{X: mat.DenseCopyOf(x[i])}
		}
		return out, nil
	case [][][]float64:
		var out = make([]Sequence, len(x))
		for i := range x {
			if len(x[i]) == 0 {
				continue
			}
			d, err := denseOf(x[i])
			if err != nil {
				return nil, errors.Wrapf(err, "sequence %d", i)
			}
			out[i] = Sequence{X: d}
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInputType, "expected a list of sequences, got %T", v)
}

// ToLabels converts a list-typed collection into label sequences. Accepted are
// []Labels, [][]float64, [][]int and []mat.Vector.
func ToLabels(v interface{}) ([]Labels, error) {
	switch y := v.(type) {
	case []Labels:
		return y, nil
	case [][]float64:
		var out = make([]Labels, len(y))
		for i := range y {
			out[i] = Labels(y[i])
		}
		return out, nil
	case [][]int:
		var out = make([]Labels, len(y))
		for i := range y {
			out[i] = make(Labels, len(y[i]))
			for j, l := range y[i] {
				out[i][j] = float64(l)
			}
		}
		return out, nil
	case []mat.Vector:
		var out = make([]Labels, len(y))
		for i := range y {
			out[i] = make(Labels, y[i].Len())
			for j := range out[i] {
				out[i][j] = y[i].AtVec(j)
			}
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInputType, "expected a list of label sequences, got %T", v)
}

// ToSequence converts a single 2-dimensional feature matrix into a sequence.
// Accepted are Sequence, *mat.Dense, mat.Matrix and [][]float64. Inputs of
// other rank, such as []float64 or [][][]float64, are ErrShape.
func ToSequence(v interface{}) (Sequence, error) {
	switch x := v.(type) {
	case Sequence:
		if x.X == nil {
			return Sequence{}, errors.Wrap(ErrShape, "sequence has no feature matrix")
		}
		return x, nil
	case *Sequence:
		if x == nil || x.X == nil {
			return Sequence{}, errors.Wrap(ErrShape, "sequence has no feature matrix")
		}
		return *x, nil
	case *mat.Dense:
		if x == nil {
			return Sequence{}, errors.Wrap(ErrShape, "nil feature matrix")
		}
		return Sequence{X: x}, nil
	case [][]float64:
		d, err := denseOf(x)
		if err != nil {
			return Sequence{}, err
		}
		return Sequence{X: d}, nil
	case mat.Matrix:
		return Sequence{X: mat.DenseCopyOf(x)}, nil
	case []float64:
		return Sequence{}, errors.Wrap(ErrShape, "can only predict a single 2-dimensional feature matrix, got 1 dimension")
	case [][][]float64:
		return Sequence{}, errors.Wrap(ErrShape, "can only predict a single 2-dimensional feature matrix, got 3 dimensions")
	case []Sequence, []*mat.Dense, []mat.Matrix:
		return Sequence{}, errors.Wrap(ErrShape, "can only predict a single 2-dimensional feature matrix, got a list")
	}
	return Sequence{}, errors.Wrapf(ErrInputType, "expected a feature matrix, got %T", v)
}

func denseOf(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(ErrShape, "empty feature matrix")
	}
	var width = len(rows[0])
	var data = make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, errors.Wrapf(ErrShape, "row %d has %d features, expected %d", i, len(r), width)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), width, data), nil
}
