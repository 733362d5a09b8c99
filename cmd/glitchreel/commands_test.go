package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunLinksFramesAndListsRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", env.inputDir, env.outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Images:        2 (0 skipped)")
	requireContains(t, out, "Seed:          7")
	requireContains(t, out, "Render with:")
	if _, err := os.Readlink(filepath.Join(env.outputDir, "frame_000000000.png")); err != nil {
		t.Fatalf("expected first frame linked: %v", err)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, env.outputDir)
}

func TestRunJSONSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--json", "--amount", "500", env.inputDir, env.outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runSummaryJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Images != 2 || summary.Seed != 7 || summary.Frames == 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RunID == "" || summary.Command == "" {
		t.Fatalf("expected run id and render command: %+v", summary)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", filepath.Join(env.baseDir, "missing"), env.outputDir}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing input directory")
	}
}

func TestPlanShowsTimeline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "a.jpg")
	requireContains(t, out, "Jpeg")
	requireContains(t, out, "24 49")
	requireContains(t, out, "2 images, 2 frames per side, interlace 2, 42 frames total")
}

func TestPlanJSONUsesSnakeCaseKeys(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan", "--json", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan struct {
		Entries []struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			GlitchIn []int  `json:"glitch_in"`
		} `json:"entries"`
		PerSide     int `json:"per_side"`
		TotalFrames int `json:"total_frames"`
	}
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if len(plan.Entries) != 2 || plan.Entries[0].Kind != "jpeg" || plan.PerSide != 2 || plan.TotalFrames != 42 {
		t.Fatalf("unexpected plan json: %s", out)
	}
	if len(plan.Entries[0].GlitchIn) != 2 {
		t.Fatalf("expected glitch_in holds, got %s", out)
	}
	requireContains(t, out, `"total_frames"`)
}

func TestCacheStatsExportImport(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", env.inputDir, env.outputDir}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries: 2")
	requireContains(t, out, "a.jpg")

	archive := filepath.Join(env.baseDir, "frames.tar.zst")
	out, _, err = runCLI(t, []string{"cache", "export", archive}, env.configPath)
	if err != nil {
		t.Fatalf("cache export: %v", err)
	}
	requireContains(t, out, "Exported 2 entries")

	other := setupCLITestEnv(t)
	out, _, err = runCLI(t, []string{"cache", "import", archive}, other.configPath)
	if err != nil {
		t.Fatalf("cache import: %v", err)
	}
	requireContains(t, out, "skipped 0 already cached")

	if _, _, err := runCLI(t, []string{"cache", "prune"}, other.configPath); err != nil {
		t.Fatalf("cache prune: %v", err)
	}
}

func TestStatusReportsSections(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Cache directory")
	requireContains(t, out, "== Frame index ==")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[generate]\nmystery = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}
