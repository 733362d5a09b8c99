package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestContentHash(t *testing.T) {
	if got := ContentHash([]byte("hello world")); got != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Fatalf("unexpected hash %q", got)
	}
	if got := ContentHash(nil); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("unexpected empty hash %q", got)
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")

	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write([]byte("data"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "data" {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertOnlyFile(t, dir, "frame.png")
}

func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	boom := errors.New("encode failed")

	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if Exists(path) {
		t.Fatal("target should not exist after failed write")
	}
	assertOnlyFile(t, dir, "")
}

func TestReplaceSymlink(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.png")
	second := filepath.Join(dir, "b.png")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	link := filepath.Join(dir, "frame_000000000.png")
	if err := ReplaceSymlink(first, link); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceSymlink(second, link); err != nil {
		t.Fatal(err)
	}
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatal(err)
	}
	if target != second {
		t.Fatalf("link points to %q, want %q", target, second)
	}
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if name == "" {
		if len(entries) != 0 {
			t.Fatalf("expected empty dir, found %d entries", len(entries))
		}
		return
	}
	if len(entries) != 1 || entries[0].Name() != name {
		t.Fatalf("expected only %s, found %v", name, entries)
	}
}
