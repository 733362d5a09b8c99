package timeline

import "slices"

// Input is everything Build needs for one image.
type Input struct {
	Image string
	// Glitch is ordered from least to most corrupted.
	Glitch      []Frame
	Clean       Frame
	ImageFrames int
	CycleIn     []int
	CycleOut    []int
}

// Build assembles one image's timeline. Glitch-in plays the glitch frames
// most corrupted first with holds from CycleIn; glitch-out plays them least
// corrupted first with holds from CycleOut. Each glitch frame forms its own
// group. The clean frame is held for ImageFrames.
func Build(in Input) Timeline {
	reversed := slices.Clone(in.Glitch)
	slices.Reverse(reversed)

	clean := in.Clean
	clean.Clean = true
	return Timeline{
		Image:     in.Image,
		GlitchIn:  holdGroups(reversed, in.CycleIn),
		Normal:    FrameGroup{Frame: clean, Hold: max(0, in.ImageFrames)},
		GlitchOut: holdGroups(in.Glitch, in.CycleOut),
	}
}

func holdGroups(frames []Frame, cycle []int) []FrameGroup {
	if len(cycle) == 0 {
		cycle = DefaultHoldCycle()
	}
	groups := make([]FrameGroup, 0, len(frames))
	for i, f := range frames {
		groups = append(groups, FrameGroup{Frame: f, Hold: cycle[i%len(cycle)]})
	}
	return groups
}
