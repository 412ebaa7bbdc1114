package batch

import "math/rand"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/datasets"

// ramp builds a width-wide sample whose feature rows count up from start.
func ramp(start float64, length, width int, label float64) datasets.Sample {
	var x = mat.NewDense(length, width, nil)
	var y = make(datasets.Labels, length)
	for t := 0; t < length; t++ {
		for f := 0; f < width; f++ {
			x.Set(t, f, start+float64(t)+float64(f)/10)
		}
		y[t] = label
	}
	return datasets.Sample{X: datasets.Sequence{X: x}, Y: y}
}

func concat(samples []datasets.Sample) (xs, ys []float64) {
	for _, s := range samples {
		xs, ys = appendSample(xs, ys, s)
	}
	return
}

func TestGroupsBalanced(t *testing.T) {
	for n := 0; n < 40; n++ {
		for k := 1; k < 12; k++ {
			var sizes = Groups(n, k)
			require.Len(t, sizes, k)
			var sum, lo, hi = 0, n, 0
			for _, s := range sizes {
				sum += s
				if s < lo {
					lo = s
				}
				if s > hi {
					hi = s
				}
			}
			assert.Equal(t, n, sum)
			assert.LessOrEqual(t, hi-lo, 1, "n=%d k=%d", n, k)
		}
	}
	assert.Equal(t, []int{3, 3, 2, 2}, Groups(10, 4))
	assert.Equal(t, []int{1, 1, 0}, Groups(2, 3))
}

func TestPadTruncates(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3, 4, 0, 0}, Pad([]float64{1, 2, 3, 4}, 2, 3))
	assert.Equal(t, []float64{1, 2}, Pad([]float64{1, 2, 3, 4}, 2, 1))
}

func TestNumBatches(t *testing.T) {
	assert.Equal(t, 1, NumBatches(1, 1, 1))
	assert.Equal(t, 2, NumBatches(17, 4, 3))
	assert.Equal(t, 3, NumBatches(21, 2, 4))
	assert.Equal(t, 0, NumBatches(0, 4, 3))
}

func TestGeneratorRoundTrip(t *testing.T) {
	var samples = []datasets.Sample{
		ramp(0, 5, 3, 1),
		ramp(100, 2, 3, 0),
		ramp(200, 7, 3, 1),
		ramp(300, 1, 3, 0),
		ramp(400, 4, 3, 0),
	}
	const chunks, timesteps = 2, 3
	p, n, err := NewGenerator(samples, chunks, timesteps, false, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, NumBatches(19, chunks, timesteps), n)
	assert.Equal(t, 4, n)

	var lanesX = make([][]float64, chunks)
	var lanesY = make([][]float64, chunks)
	for i := 0; i < n; i++ {
		b, ok := p.Next()
		require.True(t, ok)
		require.Nil(t, b.W)
		c, s, w := b.X.Shape()
		require.Equal(t, []int{chunks, timesteps, 3}, []int{c, s, w})
		for lane := 0; lane < chunks; lane++ {
			lanesX[lane] = append(lanesX[lane], b.X.Lane(lane)...)
			lanesY[lane] = append(lanesY[lane], b.Y.Lane(lane)...)
		}
	}

	// groups are {0,1,2} and {3,4}
	x0, y0 := concat(samples[:3])
	x1, y1 := concat(samples[3:])
	var maxlen = n * timesteps
	assert.Equal(t, Pad(x0, 3, maxlen), lanesX[0])
	assert.Equal(t, Pad(y0, 1, maxlen), lanesY[0])
	assert.Equal(t, Pad(x1, 3, maxlen), lanesX[1])
	assert.Equal(t, Pad(y1, 1, maxlen), lanesY[1])
}

func TestGeneratorRestartsEpoch(t *testing.T) {
	var samples = []datasets.Sample{ramp(0, 4, 2, 1), ramp(10, 4, 2, 0)}
	p, n, err := NewGenerator(samples, 2, 2, false, 0, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	first, _ := p.Next()
	p.Next()
	again, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, first.X.Data, again.X.Data)
}

func TestGeneratorWeights(t *testing.T) {
	var samples = []datasets.Sample{ramp(0, 3, 2, 1), ramp(10, 2, 2, 0)}
	p, n, err := NewGenerator(samples, 1, 5, false, 4, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	b, _ := p.Next()
	assert.Equal(t, []float64{4, 4, 4, 1, 1}, b.W)
	assert.Equal(t, 4.0, b.Weight(0, 2))
	assert.Equal(t, 1.0, b.Weight(0, 3))
}

func TestGeneratorEmpty(t *testing.T) {
	p, n, err := NewGenerator(nil, 4, 8, true, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	b, ok := p.Next()
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestGeneratorBadShape(t *testing.T) {
	_, _, err := NewGenerator([]datasets.Sample{ramp(0, 3, 2, 0)}, 0, 8, true, 0, nil)
	assert.ErrorIs(t, err, datasets.ErrShape)
	_, _, err = NewGenerator([]datasets.Sample{ramp(0, 3, 2, 0)}, 2, 0, true, 0, nil)
	assert.ErrorIs(t, err, datasets.ErrShape)
}

func TestGeneratorShuffleSeeded(t *testing.T) {
	var samples []datasets.Sample
	for i := 0; i < 20; i++ {
		samples = append(samples, ramp(float64(i*100), 3+i%4, 2, float64(i%2)))
	}
	draw := func(seed int64) []float64 {
		p, n, err := NewGenerator(samples, 3, 4, true, 0, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		var out []float64
		for i := 0; i < n; i++ {
			b, _ := p.Next()
			out = append(out, b.X.Data...)
		}
		return out
	}
	assert.Equal(t, draw(7), draw(7))
	assert.NotEqual(t, draw(7), draw(8))
}

func TestRepeat(t *testing.T) {
	var samples = []datasets.Sample{ramp(0, 2, 3, 1), ramp(50, 3, 3, 0)}
	b, err := Repeat(samples, 2)
	require.NoError(t, err)
	c, s, w := b.X.Shape()
	assert.Equal(t, []int{2, 5, 3}, []int{c, s, w})
	xs, ys := concat(samples)
	assert.Equal(t, xs, b.X.Lane(0))
	assert.Equal(t, xs, b.X.Lane(1))
	assert.Equal(t, ys, b.Y.Lane(0))
	assert.Equal(t, ys, b.Y.Lane(1))
	assert.Nil(t, b.W)

	_, err = Repeat(nil, 2)
	assert.ErrorIs(t, err, datasets.ErrShape)
}

func TestRotate(t *testing.T) {
	var samples = []datasets.Sample{ramp(0, 2, 1, 1), ramp(10, 3, 1, 0)}
	b, err := Rotate(samples, 3)
	require.NoError(t, err)
	c, s, _ := b.X.Shape()
	assert.Equal(t, []int{3, 3}, []int{c, s})
	assert.Equal(t, []float64{0, 1, 10}, b.X.Lane(0))
	assert.Equal(t, []float64{10, 11, 12}, b.X.Lane(1))
	assert.Equal(t, []float64{0, 1, 10}, b.X.Lane(2))
	assert.Equal(t, []float64{1, 1, 0}, b.Y.Lane(0))
	assert.Equal(t, []float64{0, 0, 0}, b.Y.Lane(1))

	_, err = Rotate(samples, 1)
	assert.ErrorIs(t, err, datasets.ErrShape)
}

func TestTensorStepView(t *testing.T) {
	var x = NewTensor(2, 3, 2)
	x.Set(1, 2, 1, 5)
	assert.Equal(t, 5.0, x.Step(2).At(1, 1))
	x.Step(0).Set(0, 0, 7)
	assert.Equal(t, 7.0, x.At(0, 0, 0))
	assert.Len(t, x.StepViews(), 3)
}
