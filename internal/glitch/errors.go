package glitch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat reports a buffer with no start-of-scan marker.
	ErrInvalidFormat = errors.New("invalid jpeg format")
	// ErrMalformed marks decode failures caused by a damaged bitstream. Decoders
	// wrap their error with it so the retry loop knows the attempt can be
	// repeated with fewer corrupted offsets.
	ErrMalformed = errors.New("malformed bitstream")
)

// GlitchError is returned once the retry loop has no iterations left to shed.
type GlitchError struct {
	Params   Params
	Attempts int
	Err      error
}

func (e *GlitchError) Error() string {
	return fmt.Sprintf("glitch amount=%d seed=%d iterations=%d gave up after %d attempts: %v",
		e.Params.Amount, e.Params.Seed, e.Params.Iterations, e.Attempts, e.Err)
}

func (e *GlitchError) Unwrap() error { return e.Err }
