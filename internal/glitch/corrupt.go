package glitch

import "fmt"

// trailerReserve bytes at the end of the buffer are never written so the
// end-of-image marker survives.
const trailerReserve = 4

// Corrupt writes p.Iterations bytes into data at or after headerLength and
// returns the offsets written, in window order. The body is split into
// p.Iterations equal windows and one write lands in each, positioned inside
// its window by the seed. Every write holds the same value, derived from the
// amount. The result depends only on the inputs.
func Corrupt(data []byte, headerLength int, p Params) ([]int, error) {
	if p.Iterations <= 0 {
		return nil, nil
	}
	if headerLength <= 0 {
		return nil, fmt.Errorf("header length %d: %w", headerLength, ErrInvalidFormat)
	}
	maxIndex := len(data) - headerLength - trailerReserve
	if maxIndex < 0 {
		return nil, fmt.Errorf("body of %d bytes after header %d too short: %w", len(data), headerLength, ErrInvalidFormat)
	}

	amountF := float64(p.Amount) / 100
	seedF := float64(p.Seed) / 100
	value := byte(min(255, int(amountF*256)))
	n := float64(p.Iterations)
	span := float64(maxIndex)

	offsets := make([]int, 0, p.Iterations)
	for i := 0; i < p.Iterations; i++ {
		pxMin := int(span / n * float64(i))
		pxMax := int(span / n * float64(i+1))
		px := int(float64(pxMin) + float64(pxMax-pxMin)*seedF)
		px = min(px, maxIndex)
		offset := headerLength + px
		data[offset] = value
		offsets = append(offsets, offset)
	}
	return offsets, nil
}
