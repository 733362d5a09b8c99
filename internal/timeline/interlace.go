package timeline

// InterlaceWidth is the number of boundary groups traded between neighbouring
// images. It is max(2, min(perSide/4, limit)). With limit 1 the result is
// always 2, which matches the historical output; larger limits let the width
// grow with the transition length.
func InterlaceWidth(perSide, limit int) int {
	return max(2, min(perSide/4, limit))
}

// Interlace folds timelines, in order, into one flat frame sequence. For each
// image but the last, the final width groups of its glitch-out are withheld,
// the first width groups of the next image's glitch-in are consumed, and the
// two are emitted pairwise: next head first, then this image's tail. The
// last image keeps its full glitch-out. timelines is not modified.
func Interlace(timelines []Timeline, width int) []Frame {
	return Flatten(InterlaceGroups(timelines, width))
}

// InterlaceGroups is Interlace before groups are expanded.
func InterlaceGroups(timelines []Timeline, width int) []FrameGroup {
	width = max(0, width)
	var out []FrameGroup
	consumed := 0 // leading glitch-in groups of the current image already emitted
	for i, tl := range timelines {
		out = append(out, tl.GlitchIn[min(consumed, len(tl.GlitchIn)):]...)
		out = append(out, tl.Normal)

		if i == len(timelines)-1 {
			out = append(out, tl.GlitchOut...)
			break
		}

		cut := max(0, len(tl.GlitchOut)-width)
		body, tail := tl.GlitchOut[:cut], tl.GlitchOut[cut:]
		nextIn := timelines[i+1].GlitchIn
		head := nextIn[:min(width, len(nextIn))]

		out = append(out, body...)
		for j := 0; j < min(width, len(tail)); j++ {
			if j < len(head) {
				out = append(out, head[j])
			}
			out = append(out, tail[j])
		}
		consumed = len(head)
	}
	return out
}
