package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"glitchreel/internal/config"
	"glitchreel/internal/frameindex"
	"glitchreel/internal/logging"
	"glitchreel/internal/pipeline"
	"glitchreel/internal/render"
	"glitchreel/internal/services"
	"glitchreel/internal/services/ffmpeg"
	"glitchreel/internal/testsupport"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		testsupport.WriteJPEG(t, filepath.Join(dir, name), 24, 16, uint8(40*i))
	}
}

func newPipeline(t *testing.T, cfg *config.Config, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func linkedFrames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var targets []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "frame_") {
			continue
		}
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.Fatalf("readlink %s: %v", entry.Name(), err)
		}
		targets = append(targets, target)
	}
	return targets
}

func TestRunLinksFramesAndRecordsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "a.jpg", "b.jpg")

	p := newPipeline(t, cfg, pipeline.WithIndex(store))
	summary, err := p.Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Images != 2 || len(summary.Skipped) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	targets := linkedFrames(t, output)
	if len(targets) != summary.Frames || summary.Frames == 0 {
		t.Fatalf("linked %d frames, summary says %d", len(targets), summary.Frames)
	}
	for _, target := range targets {
		if _, err := os.Stat(target); err != nil {
			t.Fatalf("link target missing: %v", err)
		}
		if !strings.HasPrefix(target, cfg.FramesDir()) {
			t.Fatalf("link points outside the cache: %s", target)
		}
	}
	if !strings.Contains(summary.Command, "frame_%09d.png") {
		t.Fatalf("unexpected suggested command %q", summary.Command)
	}

	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v (run %v)", err, run)
	}
	if run.Status != frameindex.RunCompleted || run.Frames != summary.Frames || run.Images != 2 {
		t.Fatalf("unexpected run record: %+v", run)
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	sequence := func() []string {
		cfg := testsupport.NewConfig(t, testsupport.WithFrames(2, 6))
		cfg.Generate.Shuffle = true
		input := filepath.Join(testsupport.BaseDir(cfg), "input")
		output := filepath.Join(testsupport.BaseDir(cfg), "output")
		writeImages(t, input, "a.jpg", "b.jpg", "c.jpg")

		if _, err := newPipeline(t, cfg).Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var names []string
		for _, target := range linkedFrames(t, output) {
			names = append(names, filepath.Base(target))
		}
		return names
	}

	first, second := sequence(), sequence()
	if !slices.Equal(first, second) {
		t.Fatalf("same seed produced different sequences:\n%v\n%v", first, second)
	}
}

func TestRunRemovesStaleLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "a.jpg")
	if err := os.MkdirAll(output, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	stale := filepath.Join(output, render.FrameName(99999))
	if err := os.Symlink("/nowhere.png", stale); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	keep := filepath.Join(output, render.FrameName(99998))
	testsupport.WriteFile(t, keep, 4)

	if _, err := newPipeline(t, cfg).Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Lstat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale link removed, got %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("regular file should be kept: %v", err)
	}
}

func TestRunSkipsInvalidImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "good.jpg")
	if err := os.WriteFile(filepath.Join(input, "broken.jpg"), []byte{0xFF, 0xD8, 0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}

	summary, err := newPipeline(t, cfg).Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Images != 1 {
		t.Fatalf("expected one usable image, got %d", summary.Images)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0].Name != "broken.jpg" {
		t.Fatalf("unexpected skipped list: %+v", summary.Skipped)
	}
}

func TestRunFailsWithoutUsableImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	if err := os.MkdirAll(input, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	p := newPipeline(t, cfg)
	_, err := p.Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output})
	if !errors.Is(err, services.ErrNoFrames) || !services.Fatal(err) {
		t.Fatalf("expected fatal ErrNoFrames for empty input, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(input, "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	_, err = p.Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output})
	if !errors.Is(err, services.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames when every image fails, got %v", err)
	}
}

func TestRunCancelledLinksNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "a.jpg", "b.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := newPipeline(t, cfg, pipeline.WithIndex(store)).Run(ctx, pipeline.Request{InputDir: input, OutputDir: output})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if targets := linkedFrames(t, output); len(targets) != 0 {
		t.Fatalf("expected no links after cancel, got %d", len(targets))
	}
	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v (run %v)", err, run)
	}
	if run.Status != frameindex.RunCancelled {
		t.Fatalf("expected cancelled run, got %s", run.Status)
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "a.jpg")
	if err := os.MkdirAll(output, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	held := flock.New(filepath.Join(output, ".glitchreel.lock"))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("take lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	_, err := newPipeline(t, cfg).Run(context.Background(), pipeline.Request{InputDir: input, OutputDir: output})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected lock refusal, got %v", err)
	}
}

type stubVideo struct {
	req ffmpeg.EncodeRequest
}

func (s *stubVideo) Encode(_ context.Context, req ffmpeg.EncodeRequest, _ func(ffmpeg.ProgressUpdate)) (string, error) {
	s.req = req
	return req.Output, nil
}

func (s *stubVideo) CommandLine(req ffmpeg.EncodeRequest) string { return "ffmpeg " + req.Output }

func TestRunRendersWhenVideoRequested(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	output := filepath.Join(testsupport.BaseDir(cfg), "output")
	writeImages(t, input, "a.jpg")

	video := &stubVideo{}
	r := render.New(video, nil, logging.NewNop(), render.Options{FPS: cfg.Render.FPS})
	summary, err := newPipeline(t, cfg, pipeline.WithRenderer(r)).Run(context.Background(), pipeline.Request{
		InputDir:  input,
		OutputDir: output,
		Video:     filepath.Join(output, "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Render.Video != filepath.Join(output, "out.mp4") {
		t.Fatalf("unexpected render output: %+v", summary.Render)
	}
	if video.req.TotalFrames != summary.Frames {
		t.Fatalf("render saw %d frames, linked %d", video.req.TotalFrames, summary.Frames)
	}
}

func TestPlanLaysOutTimelines(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "input")
	writeImages(t, input, "a.jpg", "b.jpg")

	plan, err := newPipeline(t, cfg).Plan(input)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Entries) != 2 || plan.PerSide != 2 || plan.Interlace != 2 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	entry := plan.Entries[0]
	if !slices.Equal(entry.Amounts, []int{24, 49}) {
		t.Fatalf("unexpected amounts %v", entry.Amounts)
	}
	if !slices.Equal(entry.GlitchIn, []int{5, 4}) || !slices.Equal(entry.GlitchOut, []int{5, 4}) || entry.Normal != 3 {
		t.Fatalf("unexpected holds: %+v", entry)
	}
	if entry.Frames != 21 || plan.TotalFrames != 42 {
		t.Fatalf("unexpected frame counts: entry %d total %d", entry.Frames, plan.TotalFrames)
	}
}
