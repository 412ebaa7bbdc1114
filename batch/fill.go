package batch

import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/datasets"

// Repeat concatenates all samples into one sequence of length M and copies it
// into every one of chunks lanes, giving a single chunks × M batch. It is the
// static evaluation batch of an externally supplied validation set.
func Repeat(samples []datasets.Sample, chunks int) (*Batch, error) {
	if chunks < 1 {
		return nil, errors.Wrapf(datasets.ErrShape, "chunk count %d below 1", chunks)
	}
	var xs, ys []float64
	for _, s := range samples {
		xs, ys = appendSample(xs, ys, s)
	}
	if len(ys) == 0 {
		return nil, errors.Wrap(datasets.ErrShape, "validation samples are empty")
	}
	var width = datasets.Width(samples)
	var out = &Batch{
		X: NewTensor(chunks, len(ys), width),
		Y: NewTensor(chunks, len(ys), 1),
	}
	for c := 0; c < chunks; c++ {
		fillLane(out, c, xs, ys)
	}
	return out, nil
}

// Rotate fills chunks lanes so that every sample is about evenly present:
// lane i holds the samples concatenated starting from sample i (wrapping
// around), cut to the length of the longest sample.
func Rotate(samples []datasets.Sample, chunks int) (*Batch, error) {
	if chunks < 1 {
		return nil, errors.Wrapf(datasets.ErrShape, "chunk count %d below 1", chunks)
	}
	if len(samples) == 0 {
		return nil, errors.Wrap(datasets.ErrShape, "validation samples are empty")
	}
	if len(samples) > chunks {
		return nil, errors.Wrapf(datasets.ErrShape, "cannot rotate %d samples into %d lanes", len(samples), chunks)
	}
	var longest int
	for _, s := range samples {
		if s.Len() > longest {
			longest = s.Len()
		}
	}
	if longest == 0 {
		return nil, errors.Wrap(datasets.ErrShape, "validation samples are empty")
	}
	var width = datasets.Width(samples)
	var out = &Batch{
		X: NewTensor(chunks, longest, width),
		Y: NewTensor(chunks, longest, 1),
	}
	for c := 0; c < chunks; c++ {
		var xs, ys []float64
		for i := range samples {
			xs, ys = appendSample(xs, ys, samples[(c+i)%len(samples)])
		}
		fillLane(out, c, Pad(xs, width, longest), Pad(ys, 1, longest))
	}
	return out, nil
}

// fillLane copies a row-major sequence into lane c; it must cover Steps rows.
func fillLane(b *Batch, c int, xs, ys []float64) {
	var F = b.X.Width
	for t := 0; t < b.X.Steps; t++ {
		var o = b.X.offset(c, t, 0)
		copy(b.X.Data[o:o+F], xs[t*F:(t+1)*F])
		b.Y.Set(c, t, 0, ys[t])
	}
}
