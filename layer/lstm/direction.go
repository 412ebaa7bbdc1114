package lstm

import "math"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"

// direction is one LSTM running over the sequence either forwards or
// backwards. Gate order in the kernels is input, forget, cell, output.
type direction struct {
	name    string
	inputs  int
	units   int
	reverse bool

	kernel    *layer.Param // inputs × 4·units
	recurrent *layer.Param // units × 4·units
	bias      *layer.Param // 1 × 4·units

	// carried state, nil after reset
	h, c *mat.Dense

	// dropout masks of the current training call, nil when unused
	maskX, maskH *mat.Dense

	cache []cell
}

// cell keeps the activations of one timestep for backpropagation.
type cell struct {
	x, hPrev, cPrev *mat.Dense // x and hPrev after dropout
	i, f, g, o      *mat.Dense
	tc              *mat.Dense // tanh(c)
}

func newDirection(name string, inputs, units int, reverse bool) *direction {
	return &direction{
		name:      name,
		inputs:    inputs,
		units:     units,
		reverse:   reverse,
		kernel:    layer.NewParam(name+"/kernel", inputs, 4*units),
		recurrent: layer.NewParam(name+"/recurrent_kernel", units, 4*units),
		bias:      layer.NewParam(name+"/bias", 1, 4*units),
	}
}

func (d *direction) params() []*layer.Param {
	return []*layer.Param{d.kernel, d.recurrent, d.bias}
}

func (d *direction) resetState() {
	d.h, d.c = nil, nil
}

// order maps the k-th processed step to its timestep.
func (d *direction) order(k, steps int) int {
	if d.reverse {
		return steps - 1 - k
	}
	return k
}

func masked(x, mask *mat.Dense) *mat.Dense {
	if mask == nil {
		return x
	}
	var out mat.Dense
	out.MulElem(x, mask)
	return &out
}

// forward runs the direction over x and carries its final state over to the
// next call. The cache is kept only when training.
func (d *direction) forward(x []*mat.Dense, training bool) []*mat.Dense {
	var steps = len(x)
	var out = make([]*mat.Dense, steps)
	if steps == 0 {
		return out
	}
	rows, _ := x[0].Dims()
	var u = d.units
	if d.h == nil {
		d.h = mat.NewDense(rows, u, nil)
		d.c = mat.NewDense(rows, u, nil)
	}
	if training {
		d.cache = make([]cell, steps)
	} else {
		d.cache = nil
	}
	var bias = d.bias.Value.RawRowView(0)
	for k := 0; k < steps; k++ {
		var t = d.order(k, steps)
		var xin = masked(x[t], d.maskX)
		var hin = masked(d.h, d.maskH)

		var z, zr mat.Dense
		z.Mul(xin, d.kernel.Value)
		zr.Mul(hin, d.recurrent.Value)
		z.Add(&z, &zr)

		var s = cell{
			x:     xin,
			hPrev: hin,
			cPrev: d.c,
			i:     mat.NewDense(rows, u, nil),
			f:     mat.NewDense(rows, u, nil),
			g:     mat.NewDense(rows, u, nil),
			o:     mat.NewDense(rows, u, nil),
			tc:    mat.NewDense(rows, u, nil),
		}
		var c = mat.NewDense(rows, u, nil)
		var h = mat.NewDense(rows, u, nil)
		for r := 0; r < rows; r++ {
			var zrow = z.RawRowView(r)
			for j := 0; j < u; j++ {
				var ig = layer.Sigmoid(zrow[j] + bias[j])
				var fg = layer.Sigmoid(zrow[u+j] + bias[u+j])
				var gg = math.Tanh(zrow[2*u+j] + bias[2*u+j])
				var og = layer.Sigmoid(zrow[3*u+j] + bias[3*u+j])
				var cv = fg*d.c.At(r, j) + ig*gg
				var tc = math.Tanh(cv)
				s.i.Set(r, j, ig)
				s.f.Set(r, j, fg)
				s.g.Set(r, j, gg)
				s.o.Set(r, j, og)
				s.tc.Set(r, j, tc)
				c.Set(r, j, cv)
				h.Set(r, j, og*tc)
			}
		}
		if training {
			d.cache[k] = s
		}
		d.h, d.c = h, c
		out[t] = h
	}
	return out
}

// backward propagates dy through the cached window. The state entering the
// window is treated as a constant.
func (d *direction) backward(dy []*mat.Dense) []*mat.Dense {
	var steps = len(d.cache)
	var dx = make([]*mat.Dense, steps)
	if steps == 0 {
		return dx
	}
	rows, _ := dy[0].Dims()
	var u = d.units
	var dhNext = mat.NewDense(rows, u, nil)
	var dcNext = mat.NewDense(rows, u, nil)
	for k := steps - 1; k >= 0; k-- {
		var t = d.order(k, steps)
		var s = d.cache[k]
		var dz = mat.NewDense(rows, 4*u, nil)
		for r := 0; r < rows; r++ {
			var dzrow = dz.RawRowView(r)
			for j := 0; j < u; j++ {
				var dh = dy[t].At(r, j) + dhNext.At(r, j)
				var ig, fg, gg, og, tc = s.i.At(r, j), s.f.At(r, j), s.g.At(r, j), s.o.At(r, j), s.tc.At(r, j)
				var dc = dh*og*(1-tc*tc) + dcNext.At(r, j)
				dzrow[j] = dc * gg * ig * (1 - ig)
				dzrow[u+j] = dc * s.cPrev.At(r, j) * fg * (1 - fg)
				dzrow[2*u+j] = dc * ig * (1 - gg*gg)
				dzrow[3*u+j] = dh * tc * og * (1 - og)
				dcNext.Set(r, j, dc*fg)
			}
		}

		var gk, gr mat.Dense
		gk.Mul(s.x.T(), dz)
		d.kernel.Grad.Add(d.kernel.Grad, &gk)
		gr.Mul(s.hPrev.T(), dz)
		d.recurrent.Grad.Add(d.recurrent.Grad, &gr)
		var gb = d.bias.Grad.RawRowView(0)
		for r := 0; r < rows; r++ {
			for j, v := range dz.RawRowView(r) {
				gb[j] += v
			}
		}

		var dxt mat.Dense
		dxt.Mul(dz, d.kernel.Value.T())
		dx[t] = masked(&dxt, d.maskX)

		var dh mat.Dense
		dh.Mul(dz, d.recurrent.Value.T())
		dhNext = masked(&dh, d.maskH)
	}
	return dx
}
