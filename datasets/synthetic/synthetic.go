package synthetic

import "math/rand"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/datasets"

// Shape describes a generated dataset.
type Shape struct {
	Samples int // number of samples
	Width   int // feature width
	MinLen  int // shortest sample
	MaxLen  int // longest sample

	// Positive is the probability of a sample being positive.
	Positive float64

	// Signal is added to the first Width/4 features of positive positions.
	Signal float64
}

const SmallWidth = 8
const MediumWidth = 32

// Small is a tiny dataset, quick enough for unit tests.
func Small(rng *rand.Rand) []datasets.Sample {
	return Generate(rng, Shape{Samples: 12, Width: SmallWidth, MinLen: 3, MaxLen: 9, Positive: 0.5, Signal: 2})
}

// Medium is a dataset for demo training runs.
func Medium(rng *rand.Rand) []datasets.Sample {
	return Generate(rng, Shape{Samples: 400, Width: MediumWidth, MinLen: 5, MaxLen: 60, Positive: 0.3, Signal: 1})
}

// Generate draws samples of the given shape. Each sample is labeled entirely
// positive or entirely negative, the way gene cluster and background regions
// are cut out of genomes.
func Generate(rng *rand.Rand, s Shape) (ret []datasets.Sample) {
	for i := 0; i < s.Samples; i++ {
		var l = s.MinLen
		if s.MaxLen > s.MinLen {
			l += rng.Intn(s.MaxLen - s.MinLen + 1)
		}
		var label float64
		if rng.Float64() < s.Positive {
			label = 1
		}
		ret = append(ret, sample(rng, l, s.Width, label, s.Signal))
	}
	return
}

// Mixed returns one sample whose labels are positive inside [from, to) only.
func Mixed(rng *rand.Rand, length, width, from, to int, signal float64) datasets.Sample {
	var smp = sample(rng, length, width, 0, 0)
	for t := from; t < to && t < length; t++ {
		smp.Y[t] = 1
		for f := 0; f < signalWidth(width); f++ {
			smp.X.X.Set(t, f, smp.X.X.At(t, f)+signal)
		}
	}
	return smp
}

func sample(rng *rand.Rand, length, width int, label, signal float64) datasets.Sample {
	if length <= 0 {
		return datasets.Sample{Y: datasets.Labels{}}
	}
	var x = mat.NewDense(length, width, nil)
	var y = make(datasets.Labels, length)
	for t := 0; t < length; t++ {
		for f := 0; f < width; f++ {
			var v = rng.NormFloat64() * 0.5
			if label == 1 && f < signalWidth(width) {
				v += signal
			}
			x.Set(t, f, v)
		}
		y[t] = label
	}
	return datasets.Sample{X: datasets.Sequence{X: x}, Y: y}
}

func signalWidth(width int) int {
	if width < 4 {
		return 1
	}
	return width / 4
}
