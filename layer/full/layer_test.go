package full

import "math/rand"
import "testing"

import "github.com/stretchr/testify/assert"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"

func TestFullGradient(t *testing.T) {
	var rng = rand.New(rand.NewSource(2))
	var f = MustNew(3, 2, rng)
	var x = []*mat.Dense{
		mat.NewDense(2, 3, []float64{0.1, -0.4, 0.3, 1, 0.5, -1}),
		mat.NewDense(2, 3, []float64{-0.2, 0.7, 0, 0.3, -0.3, 0.9}),
	}
	var r = []*mat.Dense{
		mat.NewDense(2, 2, []float64{1, -1, 0.5, 2}),
		mat.NewDense(2, 2, []float64{-0.5, 0.3, 1, 1}),
	}
	loss := func() (sum float64) {
		for i, y := range f.Forward(x, false) {
			var p mat.Dense
			p.MulElem(y, r[i])
			sum += mat.Sum(&p)
		}
		return
	}
	layer.ZeroGrads(f.Params())
	f.Forward(x, true)
	f.Backward(r)

	const eps = 1e-6
	for _, p := range f.Params() {
		rows, cols := p.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				var v = p.Value.At(i, j)
				p.Value.Set(i, j, v+eps)
				var up = loss()
				p.Value.Set(i, j, v-eps)
				var down = loss()
				p.Value.Set(i, j, v)
				assert.InDelta(t, (up-down)/(2*eps), p.Grad.At(i, j), 1e-6, "%s[%d,%d]", p.Name, i, j)
			}
		}
	}
	assert.Equal(t, 2, f.OutputSize())
}
