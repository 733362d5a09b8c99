package drapto

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	draptolib "github.com/five82/drapto"
)

func TestOutputPathUsesStem(t *testing.T) {
	got := OutputPath("/renders/glitchreel.mp4", "/renders/av1")
	if got != filepath.Join("/renders/av1", "glitchreel.mkv") {
		t.Fatalf("unexpected output path: %q", got)
	}
}

func TestLibraryRejectsMissingPaths(t *testing.T) {
	lib := NewLibrary(nil)
	if _, err := lib.Encode(t.Context(), "", "/out"); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := lib.Encode(t.Context(), "/in.mp4", " "); err == nil {
		t.Fatal("expected error for empty output dir")
	}
}

func TestLogReporterForwardsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rep := newLogReporter(logger)

	rep.EncodingStarted(250)
	rep.EncodingProgress(draptolib.ProgressSnapshot{CurrentFrame: 125, TotalFrames: 250, Percent: 50})
	rep.Warning("  low disk  ")
	rep.Error(draptolib.ReporterError{Title: "encode", Message: "boom", Suggestion: "check svt-av1"})
	rep.ValidationComplete(draptolib.ValidationSummary{Passed: false})

	out := buf.String()
	for _, want := range []string{
		"drapto encoding started",
		"total_frames=250",
		"drapto progress",
		"drapto_warning=\"low disk\"",
		"error_hint=\"check svt-av1\"",
		"passed=false",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}
