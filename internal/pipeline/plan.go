package pipeline

import (
	"fmt"

	"glitchreel/internal/discover"
	"glitchreel/internal/glitch"
	"glitchreel/internal/services"
	"glitchreel/internal/timeline"
)

// PlanEntry is the expected timeline shape of one image.
type PlanEntry struct {
	Name      string        `json:"name"`
	Kind      discover.Kind `json:"kind"`
	Amounts   []int         `json:"amounts"`
	GlitchIn  []int         `json:"glitch_in"`
	Normal    int           `json:"normal"`
	GlitchOut []int         `json:"glitch_out"`
	Frames    int           `json:"frames"`
}

// Plan previews a run without generating anything.
type Plan struct {
	Entries     []PlanEntry `json:"entries"`
	PerSide     int         `json:"per_side"`
	Interlace   int         `json:"interlace"`
	TotalFrames int         `json:"total_frames"`
}

// Plan discovers the images under input and lays out their timelines as if
// every glitch frame succeeds. Hold counts use the configured cycle before
// shuffling, and images are listed in discovery order.
func (p *Pipeline) Plan(input string) (Plan, error) {
	sources, err := discover.Find(input)
	if err != nil {
		return Plan{}, services.Wrap(services.ErrConfiguration, "pipeline", "discover", input, err)
	}
	if len(sources) == 0 {
		return Plan{}, services.Wrap(services.ErrNoFrames, "pipeline", "discover", "no images found in "+input, nil)
	}

	perSide := p.cfg.TransitionFramesPerSide()
	cycle := timeline.ShuffledCycle(nil, p.cfg.Timeline.HoldCycle)
	plan := Plan{
		PerSide:   perSide,
		Interlace: timeline.InterlaceWidth(perSide, p.cfg.Timeline.InterlaceCap),
	}
	timelines := make([]timeline.Timeline, 0, len(sources))
	for _, src := range sources {
		glitchFrames := make([]timeline.Frame, perSide)
		amounts := make([]int, perSide)
		for i := range glitchFrames {
			amounts[i] = glitch.FrameAmount(p.cfg.Generate.Amount, i, perSide)
			glitchFrames[i] = timeline.Frame{Path: fmt.Sprintf("%s#%d", src.Name(), i), Amount: amounts[i]}
		}
		tl := timeline.Build(timeline.Input{
			Image:       src.Name(),
			Glitch:      glitchFrames,
			Clean:       timeline.Frame{Path: src.Name()},
			ImageFrames: p.cfg.Generate.NormalFrames,
			CycleIn:     cycle,
			CycleOut:    cycle,
		})
		timelines = append(timelines, tl)
		plan.Entries = append(plan.Entries, PlanEntry{
			Name:      src.Name(),
			Kind:      src.Kind,
			Amounts:   amounts,
			GlitchIn:  holds(tl.GlitchIn),
			Normal:    tl.Normal.Hold,
			GlitchOut: holds(tl.GlitchOut),
			Frames:    tl.FrameCount(),
		})
	}
	plan.TotalFrames = len(timeline.Interlace(timelines, plan.Interlace))
	return plan, nil
}

func holds(groups []timeline.FrameGroup) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = g.Hold
	}
	return out
}
