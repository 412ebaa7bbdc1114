package recurrent

import "encoding/binary"
import "io"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// WriteWeights writes the parameter values to a writer. Each tensor is its
// row and column count as little endian uint32 followed by its float64
// values row by row.
func (f *Network) WriteWeights(w io.Writer) error {
	for _, p := range f.Params() {
		r, c := p.Dims()
		if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(r), uint32(c)}); err != nil {
			return err
		}
		for i := 0; i < r; i++ {
			if err := binary.Write(w, binary.LittleEndian, p.Value.RawRowView(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadWeights reads parameter values written by WriteWeights. Nothing is
// changed unless every tensor matches the network.
func (f *Network) ReadWeights(r io.Reader) error {
	var params = f.Params()
	var values = make([]*mat.Dense, len(params))
	for n, p := range params {
		var dims [2]uint32
		if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
			return errors.Wrapf(err, "reading shape of %s", p.Name)
		}
		pr, pc := p.Dims()
		if int(dims[0]) != pr || int(dims[1]) != pc {
			return errors.Errorf("parameter %s is %dx%d, stored %dx%d", p.Name, pr, pc, dims[0], dims[1])
		}
		var data = make([]float64, pr*pc)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return errors.Wrapf(err, "reading values of %s", p.Name)
		}
		values[n] = mat.NewDense(pr, pc, data)
	}
	return f.SetParameters(values)
}
