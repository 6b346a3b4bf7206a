package ldclump

import (
	"errors"
	"fmt"
)

var (
	// ErrMonomorphic is returned by the phase solver when at least one of the
	// two variants is monomorphic over all valid observations. Callers treat
	// the pair as uncorrelated.
	ErrMonomorphic = errors.New("at least one variant is monomorphic")

	// ErrUnsorted indicates that the variant stream is not ordered by
	// chromosome and position.
	ErrUnsorted = errors.New("variants are not sorted by chromosome and position")

	ErrInvalidConfig = errors.New("invalid clump configuration")
)

// DecodeError is returned when a raw genotype stream does not have the
// length implied by the founder count.
type DecodeError struct {
	Founders int
	Got      int
	Want     int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("genotype stream for %d founders is %d bytes; expected %d", e.Founders, e.Got, e.Want)
}

// WindowInvariantError signals that the core resolution loop ran longer than
// the window could possibly require. It is a programming error, never a
// property of the input.
type WindowInvariantError struct {
	Iterations int
	WindowSize int
	Chromosome int
	Position   uint32
}

func (e *WindowInvariantError) Error() string {
	return fmt.Sprintf("core resolution ran %d iterations over a window of %d variants (core at %s:%d)",
		e.Iterations, e.WindowSize, ChromosomeName(e.Chromosome), e.Position)
}
