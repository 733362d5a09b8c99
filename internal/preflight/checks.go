package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"glitchreel/internal/config"
	"glitchreel/internal/deps"
)

// minFreeRatio matches the frame cache's pruning floor.
const minFreeRatio = 0.20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputDirectory passes when path is a writable directory or can be
// created inside a writable parent.
func CheckOutputDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(filepath.Clean(path))
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFreeSpace fails when the filesystem holding path is below the cache's
// free-space floor.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	if total == 0 {
		return Result{Name: name, Passed: true, Detail: "unknown filesystem size"}
	}
	ratio := float64(free) / float64(total)
	detail := fmt.Sprintf("%.1f GiB free (%.0f%%)", float64(free)/(1<<30), ratio*100)
	if ratio < minFreeRatio {
		return Result{Name: name, Detail: detail + "; the frame cache will prune aggressively"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries cfg refers to. ffmpeg is
// only needed to render, and ImageMagick only when conversion is enabled.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Renders the frame sequence to video (--render)",
			Optional:    true,
			VersionArgs: deps.FFmpegVersionArgs,
		},
	}
	if cfg.Convert.Enabled {
		requirements = append(requirements, deps.Requirement{
			Name:        "ImageMagick",
			Command:     cfg.MagickBinary(),
			Description: "Converts webp, heic, avif and jxl sources",
			Optional:    true,
			VersionArgs: deps.MagickVersionArgs,
		})
	}
	return deps.CheckBinaries(requirements)
}
