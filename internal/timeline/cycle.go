package timeline

import (
	"math/rand/v2"
	"slices"
)

// DefaultHoldCycle gives early glitch frames long holds and later ones short.
func DefaultHoldCycle() []int {
	return []int{5, 4, 3, 2, 2, 1, 1, 1, 1}
}

// ShuffledCycle returns a shuffled copy of base. base is not modified. A nil
// rng leaves the order unchanged.
func ShuffledCycle(rng *rand.Rand, base []int) []int {
	cycle := slices.Clone(base)
	if len(cycle) == 0 {
		cycle = DefaultHoldCycle()
	}
	if rng != nil {
		rng.Shuffle(len(cycle), func(i, j int) { cycle[i], cycle[j] = cycle[j], cycle[i] })
	}
	return cycle
}
