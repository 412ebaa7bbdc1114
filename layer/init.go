package layer

import "math"
import "math/rand"

import "gonum.org/v1/gonum/mat"

// GlorotUniform fills m with values drawn uniformly from ±sqrt(6/(rows+cols)).
func GlorotUniform(rng *rand.Rand, m *mat.Dense) {
	r, c := m.Dims()
	var limit = math.Sqrt(6 / float64(r+c))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, (2*rng.Float64()-1)*limit)
		}
	}
}

// Orthogonal fills m with a random matrix whose rows or columns (whichever
// are fewer) are orthonormal.
func Orthogonal(rng *rand.Rand, m *mat.Dense) {
	r, c := m.Dims()
	var rows, cols = r, c
	if r < c {
		rows, cols = c, r
	}
	var a = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	var q, rr mat.Dense
	qr.QTo(&q)
	qr.RTo(&rr)

	// thin Q with the sign of diag(R) folded in
	var thin = mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		var sign = 1.0
		if rr.At(j, j) < 0 {
			sign = -1
		}
		for i := 0; i < rows; i++ {
			thin.Set(i, j, sign*q.At(i, j))
		}
	}
	if r < c {
		m.Copy(thin.T())
	} else {
		m.Copy(thin)
	}
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	var e = math.Exp(x)
	return e / (1 + e)
}

// DropoutMask returns a rows × cols inverted dropout mask: every entry is
// kept with probability 1-rate and scaled by 1/(1-rate). A zero rate gives nil.
func DropoutMask(rng *rand.Rand, rows, cols int, rate float64) *mat.Dense {
	if rate <= 0 {
		return nil
	}
	var m = mat.NewDense(rows, cols, nil)
	var keep = 1 / (1 - rate)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() >= rate {
				m.Set(i, j, keep)
			}
		}
	}
	return m
}
