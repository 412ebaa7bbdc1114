package batch

import "math/rand"

import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/datasets"

// Producer yields batches on demand.
type Producer interface {

	// Next returns the next batch. It reports false when there is nothing to produce.
	Next() (*Batch, bool)
}

type noop struct{}

func (noop) Next() (*Batch, bool) {
	return nil, false
}

// Noop is the producer of an empty sample list.
var Noop Producer = noop{}

// Generator is an endless, epoch-restarting batch producer. At the start of
// every epoch the samples are optionally shuffled, split into Chunks groups,
// concatenated per group, padded or truncated at the tail to a common length
// and cut into windows of Timesteps positions.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	samples        []datasets.Sample
	chunks         int
	timesteps      int
	width          int
	shuffle        bool
	positiveWeight float64
	rng            *rand.Rand

	batches int
	maxlen  int

	// current epoch, chunk-major
	x    [][]float64
	y    [][]float64
	next int
}

// NumBatches computes ceil(ceil(total/chunks)/timesteps).
func NumBatches(total, chunks, timesteps int) int {
	var perChunk = (total + chunks - 1) / chunks
	return (perChunk + timesteps - 1) / timesteps
}

// NewGenerator builds the batch producer for samples and returns it with the
// number of batches in one epoch. Without shuffling the caller is responsible
// for interleaving positive and negative samples in the list. A positive
// weight above zero adds a weight tensor: positions labeled 1 get that weight,
// all others get 1. An empty sample list yields Noop and zero batches.
func NewGenerator(samples []datasets.Sample, chunks, timesteps int, shuffle bool,
	positiveWeight float64, rng *rand.Rand) (Producer, int, error) {
	if chunks < 1 {
		return nil, 0, errors.Wrapf(datasets.ErrShape, "chunk count %d below 1", chunks)
	}
	if timesteps < 1 {
		return nil, 0, errors.Wrapf(datasets.ErrShape, "timesteps %d below 1", timesteps)
	}
	if len(samples) == 0 {
		return Noop, 0, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	var total = datasets.TotalLen(samples)
	var batches = NumBatches(total, chunks, timesteps)
	if batches == 0 {
		return Noop, 0, nil
	}
	return &Generator{
		samples:        samples,
		chunks:         chunks,
		timesteps:      timesteps,
		width:          datasets.Width(samples),
		shuffle:        shuffle,
		positiveWeight: positiveWeight,
		rng:            rng,
		batches:        batches,
		maxlen:         batches * timesteps,
	}, batches, nil
}

// MaxLen is the padded length of every chunk lane.
func (g *Generator) MaxLen() int {
	return g.maxlen
}

// Next returns the next batch of the current epoch, starting a new epoch after
// the last one. It always reports true.
func (g *Generator) Next() (*Batch, bool) {
	if g.next == 0 {
		g.epoch()
	}
	var b = g.slice(g.next)
	g.next = (g.next + 1) % g.batches
	return b, true
}

// epoch lays out the chunk sequences of a new epoch.
func (g *Generator) epoch() {
	var order = make([]int, len(g.samples))
	for i := range order {
		order[i] = i
	}
	if g.shuffle {
		order = g.rng.Perm(len(g.samples))
	}
	g.x = make([][]float64, g.chunks)
	g.y = make([][]float64, g.chunks)
	var start int
	for c, size := range Groups(len(order), g.chunks) {
		var xs, ys []float64
		for _, idx := range order[start : start+size] {
			xs, ys = appendSample(xs, ys, g.samples[idx])
		}
		start += size
		g.x[c] = Pad(xs, g.width, g.maxlen)
		g.y[c] = Pad(ys, 1, g.maxlen)
	}
}

// slice cuts batch b out of the current epoch.
func (g *Generator) slice(b int) *Batch {
	var T, C, F = g.timesteps, g.chunks, g.width
	var out = &Batch{
		X: NewTensor(C, T, F),
		Y: NewTensor(C, T, 1),
	}
	if g.positiveWeight > 0 {
		out.W = make([]float64, C*T)
	}
	for c := 0; c < C; c++ {
		for t := 0; t < T; t++ {
			var pos = b*T + t
			copy(out.X.Data[out.X.offset(c, t, 0):out.X.offset(c, t, 0)+F], g.x[c][pos*F:(pos+1)*F])
			var label = g.y[c][pos]
			out.Y.Set(c, t, 0, label)
			if out.W != nil {
				if label == 1 {
					out.W[c*T+t] = g.positiveWeight
				} else {
					out.W[c*T+t] = 1
				}
			}
		}
	}
	return out
}

func appendSample(xs, ys []float64, s datasets.Sample) ([]float64, []float64) {
	for t := 0; t < s.Len(); t++ {
		xs = append(xs, s.X.X.RawRowView(t)...)
	}
	ys = append(ys, s.Y...)
	return xs, ys
}

// Groups splits n items into k contiguous groups of near-equal size: the first
// n mod k groups hold one item more than the rest. Groups may be empty.
func Groups(n, k int) []int {
	var sizes = make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}

// Pad post-pads with zeros or post-truncates a row-major sequence of rows of
// the given width to exactly maxlen rows.
func Pad(seq []float64, width, maxlen int) []float64 {
	var out = make([]float64, maxlen*width)
	copy(out, seq)
	return out
}
