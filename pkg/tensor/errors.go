package tensor

import "errors"

var (
	// ErrInvalidArgument reports a caller mistake: bad dimensions,
	// mismatched value counts, wrong element type requested.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternal reports a consistency violation that validation
	// upstream should have made impossible.
	ErrInternal = errors.New("internal")

	// ErrUnimplemented reports a dtype or rank outside the supported set.
	ErrUnimplemented = errors.New("unimplemented")
)
