package render_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"glitchreel/internal/logging"
	"glitchreel/internal/render"
	"glitchreel/internal/services"
	"glitchreel/internal/services/ffmpeg"
)

type stubVideo struct {
	req ffmpeg.EncodeRequest
	err error
}

func (s *stubVideo) Encode(_ context.Context, req ffmpeg.EncodeRequest, progress func(ffmpeg.ProgressUpdate)) (string, error) {
	s.req = req
	if s.err != nil {
		return "", s.err
	}
	progress(ffmpeg.ProgressUpdate{Frame: req.TotalFrames, Total: req.TotalFrames, Percent: 100, Done: true})
	return req.Output, nil
}

func (s *stubVideo) CommandLine(req ffmpeg.EncodeRequest) string {
	return "ffmpeg -i " + req.Pattern + " " + req.Output
}

type stubAV1 struct {
	input, dir string
	err        error
}

func (s *stubAV1) Encode(_ context.Context, input, dir string) (string, error) {
	s.input, s.dir = input, dir
	if s.err != nil {
		return "", s.err
	}
	return filepath.Join(dir, "out.mkv"), nil
}

func TestFrameNameMatchesPattern(t *testing.T) {
	if got := render.FrameName(42); got != "frame_000000042.png" {
		t.Fatalf("unexpected frame name %q", got)
	}
}

func TestRenderBuildsRequest(t *testing.T) {
	video := &stubVideo{}
	r := render.New(video, nil, logging.NewNop(), render.Options{FPS: 25, Codec: "libx264", PixelFormat: "yuv420p"})

	out, err := r.Render(context.Background(), "/frames", 180, "/videos/out.mp4")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Video != "/videos/out.mp4" || out.AV1 != "" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if video.req.Pattern != filepath.Join("/frames", render.FramePattern) {
		t.Fatalf("unexpected pattern %q", video.req.Pattern)
	}
	if video.req.FPS != 25 || video.req.TotalFrames != 180 || video.req.Codec != "libx264" {
		t.Fatalf("unexpected request: %+v", video.req)
	}
}

func TestRenderRunsAV1Pass(t *testing.T) {
	av1 := &stubAV1{}
	r := render.New(&stubVideo{}, av1, logging.NewNop(), render.Options{FPS: 25})

	out, err := r.Render(context.Background(), "/frames", 10, "/videos/out.mp4")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if av1.input != "/videos/out.mp4" || av1.dir != filepath.Join("/videos", "av1") {
		t.Fatalf("unexpected drapto call: %+v", av1)
	}
	if out.AV1 != filepath.Join("/videos", "av1", "out.mkv") {
		t.Fatalf("unexpected av1 output %q", out.AV1)
	}
}

func TestRenderWrapsFailures(t *testing.T) {
	r := render.New(&stubVideo{err: errors.New("exit status 1")}, nil, logging.NewNop(), render.Options{FPS: 25})
	_, err := r.Render(context.Background(), "/frames", 10, "/videos/out.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	av1 := &stubAV1{err: errors.New("svt-av1 missing")}
	r = render.New(&stubVideo{}, av1, logging.NewNop(), render.Options{FPS: 25})
	out, err := r.Render(context.Background(), "/frames", 10, "/videos/out.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if out.Video == "" {
		t.Fatal("expected ffmpeg output to survive a failed AV1 pass")
	}
}

func TestRenderRejectsEmptySequence(t *testing.T) {
	r := render.New(&stubVideo{}, nil, logging.NewNop(), render.Options{FPS: 25})
	if _, err := r.Render(context.Background(), "/frames", 0, "/videos/out.mp4"); !errors.Is(err, services.ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestCommandLineMentionsPattern(t *testing.T) {
	r := render.New(&stubVideo{}, nil, logging.NewNop(), render.Options{FPS: 25})
	if cmd := r.CommandLine("/frames", 5, "/tmp/out.mp4"); !strings.Contains(cmd, "frame_%09d.png") {
		t.Fatalf("unexpected command line %q", cmd)
	}
}
