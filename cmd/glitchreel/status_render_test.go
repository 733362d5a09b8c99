package main

import (
	"fmt"
	"strings"
	"testing"

	"glitchreel/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("  %-*s %s", statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Ledger", statusOK, "ok", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	lines := dependencyLines([]deps.Status{
		{Name: "FFmpeg", Available: true, Path: "/usr/bin/ffmpeg", Version: "6.1.1"},
		{Name: "ImageMagick", Optional: true, Detail: "binary \"magick\" not found"},
		{Name: "Other"},
	}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] /usr/bin/ffmpeg (6.1.1)") {
		t.Fatalf("unexpected ready line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN] binary") {
		t.Fatalf("expected optional dependency warning, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ERROR] not available") {
		t.Fatalf("expected required dependency error, got %q", lines[2])
	}
}

func TestHelpers(t *testing.T) {
	if got := humanBytes(1536); got != "1.5 KiB" {
		t.Fatalf("humanBytes = %q", got)
	}
	if got := displayTitle("decodable"); got != "Decodable" {
		t.Fatalf("displayTitle = %q", got)
	}
	if got := formatFrames(50, 25); got != "2s" {
		t.Fatalf("formatFrames = %q", got)
	}
	if got := joinInts(nil); got != "-" {
		t.Fatalf("joinInts(nil) = %q", got)
	}
}
