package layer

import "gonum.org/v1/gonum/mat"

// Param is a trainable tensor together with its accumulated gradient.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam allocates a zero parameter of r rows and c columns.
func NewParam(name string, r, c int) *Param {
	return &Param{
		Name:  name,
		Value: mat.NewDense(r, c, nil),
		Grad:  mat.NewDense(r, c, nil),
	}
}

// ZeroGrad clears the gradient.
func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// Dims returns the parameter shape.
func (p *Param) Dims() (r, c int) {
	return p.Value.Dims()
}

// ZeroGrads clears the gradients of all params.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// Sequence allocates steps zero matrices of rows × cols.
func Sequence(steps, rows, cols int) []*mat.Dense {
	var out = make([]*mat.Dense, steps)
	for t := range out {
		out[t] = mat.NewDense(rows, cols, nil)
	}
	return out
}
