package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"glitchreel/internal/fileutil"
	"glitchreel/internal/render"
	"glitchreel/internal/timeline"
)

// linkFrames points OUTPUT/frame_N.png at each frame in order, then removes
// links left over from a longer earlier run.
func linkFrames(dir string, frames []timeline.Frame) error {
	for i, f := range frames {
		if err := fileutil.ReplaceSymlink(f.Path, filepath.Join(dir, render.FrameName(i))); err != nil {
			return err
		}
	}
	return removeStaleLinks(dir, len(frames))
}

// removeStaleLinks deletes frame links numbered from n upward. Regular files
// with matching names are left alone.
func removeStaleLinks(dir string, n int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, entry := range entries {
		index, ok := frameIndex(entry.Name())
		if !ok || index < n || entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale link %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func frameIndex(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "frame_")
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, ".png")
	if !ok || len(digits) != 9 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
