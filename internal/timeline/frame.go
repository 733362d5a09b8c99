package timeline

// Frame identifies one rendered image on disk.
type Frame struct {
	Path   string
	Amount int
	Clean  bool
}

// FrameGroup shows Frame for Hold consecutive output frames.
type FrameGroup struct {
	Frame Frame
	Hold  int
}

// Expand returns the group's frame repeated Hold times.
func (g FrameGroup) Expand() []Frame {
	out := make([]Frame, 0, max(0, g.Hold))
	for range g.Hold {
		out = append(out, g.Frame)
	}
	return out
}

// Timeline is one image's glitch-in, normal and glitch-out groups.
type Timeline struct {
	Image     string
	GlitchIn  []FrameGroup
	Normal    FrameGroup
	GlitchOut []FrameGroup
}

// Groups returns the groups in play order.
func (t Timeline) Groups() []FrameGroup {
	out := make([]FrameGroup, 0, len(t.GlitchIn)+1+len(t.GlitchOut))
	out = append(out, t.GlitchIn...)
	out = append(out, t.Normal)
	return append(out, t.GlitchOut...)
}

// FrameCount is the number of output frames the timeline expands to.
func (t Timeline) FrameCount() int {
	return holdSum(t.GlitchIn) + t.Normal.Hold + holdSum(t.GlitchOut)
}

// Flatten expands groups into individual frame references.
func Flatten(groups []FrameGroup) []Frame {
	out := make([]Frame, 0, holdSum(groups))
	for _, g := range groups {
		out = append(out, g.Expand()...)
	}
	return out
}

func holdSum(groups []FrameGroup) int {
	total := 0
	for _, g := range groups {
		total += max(0, g.Hold)
	}
	return total
}
