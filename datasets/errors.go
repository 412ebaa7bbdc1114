package datasets

import "github.com/pkg/errors"

var (
	// ErrInputType is returned when a collection is not a list of sequences or labels.
	ErrInputType = errors.New("unsupported input type")

	// ErrShape is returned on wrong rank, mismatched lengths or inconsistent feature width.
	ErrShape = errors.New("invalid input shape")

	// ErrDegenerate is returned when class weights cannot be derived from the labels.
	ErrDegenerate = errors.New("degenerate label set")
)
