package glitch

const (
	markerPrefix = 0xFF
	markerSOS    = 0xDA
	// sosLeeway keeps the marker and the two bytes that follow it intact.
	sosLeeway = 2
)

// HeaderLength returns the offset below which corruption must never write:
// the index of the first 0xFF 0xDA pair plus two. Buffers without the marker
// yield ErrInvalidFormat.
func HeaderLength(data []byte) (int, error) {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == markerPrefix && data[i+1] == markerSOS {
			return i + sosLeeway, nil
		}
	}
	return 0, ErrInvalidFormat
}
