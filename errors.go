package synth

import "github.com/pkg/errors"

var (
	// ErrNoComponents is returned by New when the library is empty.
	ErrNoComponents = errors.New("no components in library")

	// ErrSynthesisUnsatisfiable means no program of the attempted length
	// satisfies the specification.
	ErrSynthesisUnsatisfiable = errors.New("synthesis unsatisfiable")

	// ErrSynthesisUnknown means the solver gave up, usually because the
	// time budget ran out.
	ErrSynthesisUnknown = errors.New("synthesis unknown")

	ErrShapeOutOfBounds = errors.New("matrix shape exceeds the configured bound")
	ErrMalformedProgram = errors.New("malformed program")
	ErrArityMismatch    = errors.New("arity mismatch")
)
