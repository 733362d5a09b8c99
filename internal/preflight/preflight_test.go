package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"glitchreel/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDirectory_Creatable(t *testing.T) {
	result := CheckOutputDirectory("output", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed {
		t.Fatalf("expected creatable output to pass, got: %s", result.Detail)
	}
}

func TestCheckFreeSpace_TempDir(t *testing.T) {
	result := CheckFreeSpace("free", t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected free-space detail")
	}
}

func TestRunAllCreatesDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results[:2] {
		if !r.Passed {
			t.Fatalf("expected %s to pass, got %s", r.Name, r.Detail)
		}
	}
	if _, err := os.Stat(cfg.Paths.CacheDir); err != nil {
		t.Fatalf("expected cache dir to be created: %v", err)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 1 || statuses[0].Name != "FFmpeg" {
		t.Fatalf("expected only ffmpeg with conversion disabled, got %+v", statuses)
	}
	if !statuses[0].Available {
		t.Fatalf("expected stubbed ffmpeg to be found: %s", statuses[0].Detail)
	}

	cfg.Convert.Enabled = true
	statuses = CheckSystemDeps(cfg)
	if len(statuses) != 2 || statuses[1].Name != "ImageMagick" || !statuses[1].Available {
		t.Fatalf("expected stubbed ImageMagick, got %+v", statuses)
	}
}

func TestFailed(t *testing.T) {
	failed := Failed([]Result{{Name: "a", Passed: true}, {Name: "b"}})
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed list: %+v", failed)
	}
}
