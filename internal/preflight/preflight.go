package preflight

import (
	"glitchreel/internal/config"
)

// FreeSpaceCheck names the cache free-space result. It is advisory: the
// cache prunes itself when space runs low.
const FreeSpaceCheck = "Cache free space"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg. The cache and log
// directories are created first so a fresh install passes.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	// Creation errors surface through the access checks below.
	_ = cfg.EnsureDirectories()

	var results []Result
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckFreeSpace(FreeSpaceCheck, cfg.Paths.CacheDir))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
