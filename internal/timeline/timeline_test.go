package timeline_test

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"glitchreel/internal/timeline"
)

func glitchFrames(prefix string, n int) []timeline.Frame {
	frames := make([]timeline.Frame, n)
	for i := range frames {
		frames[i] = timeline.Frame{Path: fmt.Sprintf("%s%d", prefix, i), Amount: i * 10}
	}
	return frames
}

func g(path string, hold int) timeline.FrameGroup {
	return timeline.FrameGroup{Frame: timeline.Frame{Path: path}, Hold: hold}
}

func paths(groups []timeline.FrameGroup) []string {
	out := make([]string, len(groups))
	for i, grp := range groups {
		out[i] = fmt.Sprintf("%s/%d", grp.Frame.Path, grp.Hold)
	}
	return out
}

func TestBuildOrdersGlitchGroups(t *testing.T) {
	tl := timeline.Build(timeline.Input{
		Image:       "a.jpg",
		Glitch:      glitchFrames("a", 12),
		Clean:       timeline.Frame{Path: "A"},
		ImageFrames: 7,
		CycleIn:     timeline.DefaultHoldCycle(),
		CycleOut:    timeline.DefaultHoldCycle(),
	})

	if tl.Normal.Hold != 7 || !tl.Normal.Frame.Clean || tl.Normal.Frame.Path != "A" {
		t.Fatalf("unexpected normal group: %+v", tl.Normal)
	}
	if len(tl.GlitchIn) != 12 || len(tl.GlitchOut) != 12 {
		t.Fatalf("expected 12 groups each way, got %d/%d", len(tl.GlitchIn), len(tl.GlitchOut))
	}
	seen := map[string]bool{}
	for i := 1; i < len(tl.GlitchIn); i++ {
		if tl.GlitchIn[i].Frame.Amount >= tl.GlitchIn[i-1].Frame.Amount {
			t.Fatalf("glitch-in not strictly decreasing at %d", i)
		}
		if tl.GlitchOut[i].Frame.Amount <= tl.GlitchOut[i-1].Frame.Amount {
			t.Fatalf("glitch-out not strictly increasing at %d", i)
		}
	}
	for _, grp := range tl.GlitchIn {
		seen[grp.Frame.Path] = true
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 distinct frames in glitch-in, got %d", len(seen))
	}
	// Holds wrap around the nine entry cycle.
	if tl.GlitchOut[9].Hold != 5 || tl.GlitchOut[10].Hold != 4 {
		t.Fatalf("hold cycle did not wrap: %v", paths(tl.GlitchOut))
	}
	if got := len(timeline.Flatten([]timeline.FrameGroup{tl.Normal})); got != 7 {
		t.Fatalf("normal expands to %d frames", got)
	}
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	frames := glitchFrames("a", 3)
	original := slices.Clone(frames)
	timeline.Build(timeline.Input{Glitch: frames, ImageFrames: 1})
	if !slices.Equal(frames, original) {
		t.Fatal("Build reordered its input")
	}
}

func TestShuffledCycleIsPermutation(t *testing.T) {
	base := timeline.DefaultHoldCycle()
	rng := rand.New(rand.NewPCG(1, 2))
	got := timeline.ShuffledCycle(rng, base)

	if !slices.Equal(base, timeline.DefaultHoldCycle()) {
		t.Fatal("base cycle modified")
	}
	sortedGot := slices.Clone(got)
	slices.Sort(sortedGot)
	sortedBase := slices.Clone(base)
	slices.Sort(sortedBase)
	if !slices.Equal(sortedGot, sortedBase) {
		t.Fatalf("shuffle is not a permutation: %v", got)
	}

	again := timeline.ShuffledCycle(rand.New(rand.NewPCG(1, 2)), base)
	if !slices.Equal(got, again) {
		t.Fatal("same seed produced different cycles")
	}
	if !slices.Equal(timeline.ShuffledCycle(nil, base), base) {
		t.Fatal("nil rng should keep the order")
	}
}

func TestInterlaceWidth(t *testing.T) {
	tests := []struct{ perSide, limit, want int }{
		{15, 1, 2},
		{100, 1, 2},
		{0, 1, 2},
		{40, 6, 6},
		{40, 20, 10},
		{4, 8, 2},
	}
	for _, tt := range tests {
		if got := timeline.InterlaceWidth(tt.perSide, tt.limit); got != tt.want {
			t.Fatalf("InterlaceWidth(%d,%d) = %d, want %d", tt.perSide, tt.limit, got, tt.want)
		}
	}
}

func TestInterlaceTwoImages(t *testing.T) {
	in := []int{4, 3, 2, 1}
	out := []int{1, 2, 3, 4}
	a := timeline.Build(timeline.Input{Image: "a", Glitch: glitchFrames("a", 4), Clean: timeline.Frame{Path: "A"}, ImageFrames: 3, CycleIn: in, CycleOut: out})
	b := timeline.Build(timeline.Input{Image: "b", Glitch: glitchFrames("b", 4), Clean: timeline.Frame{Path: "B"}, ImageFrames: 3, CycleIn: in, CycleOut: out})
	timelines := []timeline.Timeline{a, b}

	width := timeline.InterlaceWidth(4, 1)
	got := paths(timeline.InterlaceGroups(timelines, width))
	want := []string{
		// image a: full glitch-in, normal, glitch-out truncated to two groups
		"a3/4", "a2/3", "a1/2", "a0/1", "A/3", "a0/1", "a1/2",
		// interlace pairs: head of b's glitch-in, then a's withheld tail
		"b3/4", "a2/3", "b2/3", "a3/4",
		// image b: remaining glitch-in, normal, untruncated glitch-out
		"b1/2", "b0/1", "B/3", "b0/1", "b1/2", "b2/3", "b3/4",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected sequence:\n got %v\nwant %v", got, want)
	}

	frames := timeline.Interlace(timelines, width)
	if len(frames) != a.FrameCount()+b.FrameCount() {
		t.Fatalf("expected %d frames, got %d", a.FrameCount()+b.FrameCount(), len(frames))
	}
	if len(timelines[1].GlitchIn) != 4 || len(timelines[0].GlitchOut) != 4 {
		t.Fatal("Interlace modified its input")
	}
}

func TestInterlaceNeverTruncatesLastImage(t *testing.T) {
	var timelines []timeline.Timeline
	for i := range 3 {
		timelines = append(timelines, timeline.Build(timeline.Input{
			Image:       fmt.Sprint(i),
			Glitch:      glitchFrames(fmt.Sprintf("img%d-", i), 6),
			Clean:       timeline.Frame{Path: fmt.Sprintf("clean%d", i)},
			ImageFrames: 2,
		}))
	}
	groups := timeline.InterlaceGroups(timelines, 2)
	last := timelines[2].GlitchOut
	if !slices.Equal(groups[len(groups)-len(last):], last) {
		t.Fatal("last image glitch-out was truncated")
	}
}

func TestInterlaceSingleImage(t *testing.T) {
	tl := timeline.Build(timeline.Input{Glitch: glitchFrames("a", 3), Clean: timeline.Frame{Path: "A"}, ImageFrames: 2})
	if got := timeline.InterlaceGroups([]timeline.Timeline{tl}, 2); !slices.Equal(got, tl.Groups()) {
		t.Fatalf("single image should play unchanged, got %v", paths(got))
	}
}

func TestInterlaceShortGlitchRuns(t *testing.T) {
	// One surviving glitch frame per image: the tail has a single group, so a
	// single pair is emitted and the second head group is dropped.
	a := timeline.Timeline{GlitchIn: []timeline.FrameGroup{g("ai", 1)}, Normal: g("A", 2), GlitchOut: []timeline.FrameGroup{g("ao", 1)}}
	b := timeline.Timeline{GlitchIn: []timeline.FrameGroup{g("bi0", 1), g("bi1", 1)}, Normal: g("B", 2), GlitchOut: nil}
	got := paths(timeline.InterlaceGroups([]timeline.Timeline{a, b}, 2))
	want := []string{"ai/1", "A/2", "bi0/1", "ao/1", "B/2"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	// Next image with no glitch frames at all still receives the tail.
	c := timeline.Timeline{Normal: g("C", 1)}
	got = paths(timeline.InterlaceGroups([]timeline.Timeline{a, c}, 2))
	want = []string{"ai/1", "A/2", "ao/1", "C/1"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestInterlaceEmpty(t *testing.T) {
	if got := timeline.Interlace(nil, 2); len(got) != 0 {
		t.Fatalf("expected no frames, got %d", len(got))
	}
}
