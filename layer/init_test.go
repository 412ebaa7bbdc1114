package layer

import "math/rand"
import "testing"

import "github.com/stretchr/testify/assert"
import "gonum.org/v1/gonum/mat"

func TestOrthogonal(t *testing.T) {
	var m = mat.NewDense(3, 12, nil)
	Orthogonal(rand.New(rand.NewSource(1)), m)
	var g mat.Dense
	g.Mul(m, m.T())
	assert.True(t, mat.EqualApprox(&g, eye(3), 1e-9))

	var tall = mat.NewDense(5, 2, nil)
	Orthogonal(rand.New(rand.NewSource(2)), tall)
	g.Reset()
	g.Mul(tall.T(), tall)
	assert.True(t, mat.EqualApprox(&g, eye(2), 1e-9))
}

func TestDropoutMask(t *testing.T) {
	assert.Nil(t, DropoutMask(rand.New(rand.NewSource(1)), 2, 2, 0))
	var m = DropoutMask(rand.New(rand.NewSource(1)), 50, 50, 0.2)
	var kept int
	for i := 0; i < 50; i++ {
		for _, v := range m.RawRowView(i) {
			if v != 0 {
				assert.InDelta(t, 1.25, v, 1e-12)
				kept++
			}
		}
	}
	assert.InDelta(t, 2000, kept, 150)
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1, Sigmoid(800), 1e-12)
	assert.InDelta(t, 0, Sigmoid(-800), 1e-12)
}

func eye(n int) *mat.Dense {
	var m = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
