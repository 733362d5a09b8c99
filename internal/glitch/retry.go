package glitch

import (
	"bytes"
	"context"
	"errors"
	"image"
)

// Phase is the position of a retry loop in its lifecycle.
type Phase int

const (
	Attempting Phase = iota
	Success
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Attempting:
		return "attempting"
	case Success:
		return "success"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is a retry loop state. Iterations is only meaningful while Attempting.
type State struct {
	Phase      Phase
	Iterations int
}

// Start returns the initial state for a loop beginning at iterations.
func Start(iterations int) State {
	return State{Phase: Attempting, Iterations: max(0, iterations)}
}

// Next computes the state following an attempt made in s. A nil decodeErr
// succeeds. An error wrapping ErrMalformed sheds one iteration, or exhausts
// the loop when one or fewer remain. Any other error is not retryable and is
// returned unchanged alongside s.
func Next(s State, decodeErr error) (State, error) {
	if s.Phase != Attempting {
		return s, nil
	}
	if decodeErr == nil {
		return State{Phase: Success, Iterations: s.Iterations}, nil
	}
	if !errors.Is(decodeErr, ErrMalformed) {
		return s, decodeErr
	}
	if s.Iterations <= 1 {
		return State{Phase: Exhausted, Iterations: s.Iterations}, nil
	}
	return State{Phase: Attempting, Iterations: s.Iterations - 1}, nil
}

// Decoder turns a candidate byte stream into pixels. Implementations wrap
// bitstream damage with ErrMalformed.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (image.Image, error)

func (f DecoderFunc) Decode(data []byte) (image.Image, error) { return f(data) }

// Result describes a successful corruption.
type Result struct {
	Image image.Image
	// Iterations is the write count of the attempt that decoded.
	Iterations int
	Attempts   int
	Offsets    []int
}

// Loop corrupts fresh copies of a source buffer until one decodes.
type Loop struct {
	Decoder Decoder
}

// Run corrupts source with p, lowering p.Iterations after each malformed
// decode. source is never modified. It makes at most max(1, p.Iterations)
// attempts and returns *GlitchError when they are used up. ctx is checked
// before each attempt.
func (l Loop) Run(ctx context.Context, source []byte, p Params) (Result, error) {
	if l.Decoder == nil {
		return Result{}, errors.New("glitch loop: decoder is nil")
	}
	headerLength, err := HeaderLength(source)
	if err != nil {
		return Result{}, err
	}

	state := Start(p.Iterations)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		current := p
		current.Iterations = state.Iterations
		work := bytes.Clone(source)
		offsets, err := Corrupt(work, headerLength, current)
		if err != nil {
			return Result{}, err
		}

		img, decodeErr := l.Decoder.Decode(work)
		next, err := Next(state, decodeErr)
		if err != nil {
			return Result{}, err
		}
		switch next.Phase {
		case Success:
			return Result{Image: img, Iterations: state.Iterations, Attempts: attempt, Offsets: offsets}, nil
		case Exhausted:
			return Result{}, &GlitchError{Params: p, Attempts: attempt, Err: decodeErr}
		}
		state = next
	}
}
