package parallel

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Hasher collects per-tensor digests, possibly from several goroutines, and
// folds them in slot order into one sha256 sum.
type Hasher struct {
	mut  sync.Mutex
	sha  hash.Hash
	data [][32]byte
	put  []bool
}

// NewHasher makes a hasher for n digests.
func NewHasher(n int) *Hasher {
	return &Hasher{
		sha:  sha256.New(),
		data: make([][32]byte, n),
		put:  make([]bool, n),
	}
}

// MustPutHash stores the digest of slot n. Writing a slot twice panics.
func (h *Hasher) MustPutHash(n int, value [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()
	if h.put[n] {
		panic("duplicate hash write")
	}
	h.put[n] = true
	h.data[n] = value
}

// Sum folds all slots in order. Missing slots hash as zero.
func (h *Hasher) Sum() (ret [32]byte) {
	h.mut.Lock()
	for i := range h.data {
		h.sha.Write(h.data[i][:])
	}
	copy(ret[:], h.sha.Sum(nil))
	h.sha.Reset()
	h.mut.Unlock()
	return
}

// HashDense digests the shape and the exact bits of every value of m.
func HashDense(m *mat.Dense) (ret [32]byte) {
	var sha = sha256.New()
	var buf [8]byte
	r, c := m.Dims()
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c))
	sha.Write(buf[:])
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			sha.Write(buf[:])
		}
	}
	copy(ret[:], sha.Sum(nil))
	return
}

// Fingerprint identifies a list of tensors by value. Two lists have equal
// fingerprints when they hold bit-identical tensors of the same shapes.
func Fingerprint(tensors []*mat.Dense) [32]byte {
	h := NewHasher(len(tensors))
	ForEach(len(tensors), Threads(), func(i int) {
		h.MustPutHash(i, HashDense(tensors[i]))
	})
	return h.Sum()
}
