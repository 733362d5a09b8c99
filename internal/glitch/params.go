package glitch

import "fmt"

const (
	// MaxAmount and MaxSeed bound the normalized parameters to [0,1).
	MaxAmount = 99
	MaxSeed   = 99
	// MaxIterations bounds the number of corrupted offsets per frame.
	MaxIterations = 115

	iterationsPerAmount = 1.15
)

// Params are the three knobs of a single corruption. Amount sets the byte
// value written, Seed shifts each write within its window, and Iterations is
// the number of writes.
type Params struct {
	Amount     int
	Seed       int
	Iterations int
}

// Validate checks the parameters are within their documented ranges.
func (p Params) Validate() error {
	switch {
	case p.Amount < 0 || p.Amount > MaxAmount:
		return fmt.Errorf("amount %d outside [0,%d]", p.Amount, MaxAmount)
	case p.Seed < 0 || p.Seed > MaxSeed:
		return fmt.Errorf("seed %d outside [0,%d]", p.Seed, MaxSeed)
	case p.Iterations < 0 || p.Iterations > MaxIterations:
		return fmt.Errorf("iterations %d outside [0,%d]", p.Iterations, MaxIterations)
	}
	return nil
}

// FrameAmount is the amount requested for glitch frame index of perSide
// frames when the run-level amount is runAmount (1-100). Amounts ramp up with
// the index and are shifted down by one into [0,99].
//
// The ramp is exact integer division, runAmount*(index+1)/perSide. Computing
// the fraction (index+1)/perSide in floating point first truncates one lower
// whenever the product lands just under a whole number: runAmount 75,
// perSide 15, index 10 gives 55 here but 54.99... and so 54 that way, before
// the shift. Frame amounts, and therefore cache names, can differ by one from
// sequences made with the float form.
func FrameAmount(runAmount, index, perSide int) int {
	if perSide <= 0 {
		return 0
	}
	requested := runAmount * (index + 1) / perSide
	return clamp(requested-1, 0, MaxAmount)
}

// IterationsFor derives the write count from an amount.
func IterationsFor(amount int) int {
	return clamp(int(float64(amount)*iterationsPerAmount), 0, MaxIterations)
}

// FrameParams bundles the derived amount and iterations with a caller-drawn seed.
func FrameParams(runAmount, index, perSide, seed int) Params {
	amount := FrameAmount(runAmount, index, perSide)
	return Params{
		Amount:     amount,
		Seed:       clamp(seed, 0, MaxSeed),
		Iterations: IterationsFor(amount),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
