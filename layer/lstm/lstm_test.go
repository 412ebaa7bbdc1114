package lstm

import "math/rand"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"

func randomSequence(rng *rand.Rand, steps, rows, cols int) []*mat.Dense {
	var x = layer.Sequence(steps, rows, cols)
	for _, m := range x {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, rng.NormFloat64())
			}
		}
	}
	return x
}

// weighted sum of outputs, the upstream gradient being the weights
func projection(y, r []*mat.Dense) (sum float64) {
	for t := range y {
		var p mat.Dense
		p.MulElem(y[t], r[t])
		sum += mat.Sum(&p)
	}
	return
}

func TestGradientCheck(t *testing.T) {
	var rng = rand.New(rand.NewSource(3))
	var l = MustNew(3, 2, 0, 0, rng)
	var x = randomSequence(rng, 4, 2, 3)
	var r = randomSequence(rng, 4, 2, 4)

	l.ResetState()
	layer.ZeroGrads(l.Params())
	l.Forward(x, true)
	var dx = l.Backward(r)

	const eps = 1e-6
	loss := func() float64 {
		l.ResetState()
		return projection(l.Forward(x, false), r)
	}
	for _, p := range l.Params() {
		rows, cols := p.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				var v = p.Value.At(i, j)
				p.Value.Set(i, j, v+eps)
				var up = loss()
				p.Value.Set(i, j, v-eps)
				var down = loss()
				p.Value.Set(i, j, v)
				assert.InDelta(t, (up-down)/(2*eps), p.Grad.At(i, j), 1e-5, "%s[%d,%d]", p.Name, i, j)
			}
		}
	}
	for s := range x {
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				var v = x[s].At(i, j)
				x[s].Set(i, j, v+eps)
				var up = loss()
				x[s].Set(i, j, v-eps)
				var down = loss()
				x[s].Set(i, j, v)
				assert.InDelta(t, (up-down)/(2*eps), dx[s].At(i, j), 1e-5, "x[%d][%d,%d]", s, i, j)
			}
		}
	}
}

func TestStateCarriesUntilReset(t *testing.T) {
	var rng = rand.New(rand.NewSource(5))
	var l = MustNew(2, 3, 0.2, 0.2, rng)
	var x = randomSequence(rng, 3, 1, 2)

	var first = l.Forward(x, false)
	var carried = l.Forward(x, false)
	l.ResetState()
	var again = l.Forward(x, false)

	require.Len(t, first, 3)
	r, c := first[0].Dims()
	assert.Equal(t, []int{1, 6}, []int{r, c})
	assert.False(t, mat.Equal(first[0], carried[0]))
	for i := range first {
		assert.True(t, mat.Equal(first[i], again[i]))
	}
}

func TestLanesAreIndependent(t *testing.T) {
	var rng = rand.New(rand.NewSource(9))
	var l = MustNew(2, 2, 0, 0, rng)
	var two = randomSequence(rng, 5, 2, 2)
	var one = make([]*mat.Dense, len(two))
	for i := range two {
		one[i] = mat.NewDense(1, 2, two[i].RawRowView(1))
	}
	var y2 = l.Forward(two, false)
	l.ResetState()
	var y1 = l.Forward(one, false)
	for i := range y1 {
		assert.InDeltaSlice(t, y2[i].RawRowView(1), y1[i].RawRowView(0), 1e-12)
	}
}

func TestForgetBias(t *testing.T) {
	var l = MustNew(2, 3, 0, 0, rand.New(rand.NewSource(1)))
	b := l.Params()[2].Value.RawRowView(0)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 0, 0, 0, 0, 0, 0}, b)
	_, err := New(0, 3, 0, 0, nil)
	assert.Error(t, err)
	_, err = New(2, 3, 1, 0, nil)
	assert.Error(t, err)
}
