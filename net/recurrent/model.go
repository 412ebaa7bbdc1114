package recurrent

import "encoding/binary"
import "encoding/json"
import "io"
import "os"

import "github.com/golang/snappy"
import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/config"

// Hyperparameters are the options a model was configured and trained with.
type Hyperparameters struct {
	Model config.Model `json:"model"`
	Fit   config.Fit   `json:"fit"`
}

// Header is the self-describing part of a stored model. A nil Architecture
// marks an untrained model without parameters.
type Header struct {
	RunID        string          `json:"run_id"`
	Config       Hyperparameters `json:"config"`
	Architecture *Architecture   `json:"architecture"`
}

// maximum header size accepted on read
const maxHeader = 1 << 24

// WriteModel writes a snappy framed model: the length of the JSON header as
// a big endian uint32, the header, then the weights of f unless f is nil.
func WriteModel(w io.Writer, h Header, f *Network) error {
	if f != nil {
		var arch = f.Architecture()
		h.Architecture = &arch
	} else {
		h.Architecture = nil
	}
	head, err := json.Marshal(h)
	if err != nil {
		return errors.Wrap(err, "encoding model header")
	}
	sw := snappy.NewBufferedWriter(w)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(head)))
	if _, err := sw.Write(size[:]); err != nil {
		return err
	}
	if _, err := sw.Write(head); err != nil {
		return err
	}
	if f != nil {
		if err := f.WriteWeights(sw); err != nil {
			return errors.Wrap(err, "writing weights")
		}
	}
	return sw.Close()
}

// ReadModel reads a model written by WriteModel and rebuilds its network,
// which is nil for an untrained model.
func ReadModel(r io.Reader) (h Header, f *Network, err error) {
	sr := snappy.NewReader(r)
	var size [4]byte
	if _, err = io.ReadFull(sr, size[:]); err != nil {
		return h, nil, errors.Wrap(err, "reading model header size")
	}
	var n = binary.BigEndian.Uint32(size[:])
	if n > maxHeader {
		return h, nil, errors.Errorf("model header of %d bytes is too large", n)
	}
	var head = make([]byte, n)
	if _, err = io.ReadFull(sr, head); err != nil {
		return h, nil, errors.Wrap(err, "reading model header")
	}
	if err = json.Unmarshal(head, &h); err != nil {
		return h, nil, errors.Wrap(err, "decoding model header")
	}
	if h.Architecture == nil {
		return h, nil, nil
	}
	if f, err = New(*h.Architecture); err != nil {
		return h, nil, errors.Wrap(err, "rebuilding network")
	}
	if err = f.ReadWeights(sr); err != nil {
		return h, nil, errors.Wrap(err, "reading weights")
	}
	return h, f, nil
}

// WriteModelFile writes a model to the named file.
func WriteModelFile(name string, h Header, f *Network) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = WriteModel(file, h, f)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadModelFile reads a model from the named file.
func ReadModelFile(name string) (Header, *Network, error) {
	file, err := os.Open(name)
	if err != nil {
		return Header{}, nil, err
	}
	defer file.Close()
	return ReadModel(file)
}
