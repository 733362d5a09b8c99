package framecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"glitchreel/internal/config"
	"glitchreel/internal/fileutil"
	"glitchreel/internal/logging"
)

const (
	// freeSpaceFloor is the minimum free-space ratio we allow before pruning (e.g., 0.20 => 80% full).
	freeSpaceFloor = 0.20
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Cache handles storing and pruning frame artifacts.
type Cache struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
	statfs   statfsFunc
}

// Stats describes current cache usage.
type Stats struct {
	Entries        int            `json:"entries"`
	Frames         int            `json:"frames"`
	TotalBytes     int64          `json:"total_bytes"`
	MaxBytes       int64          `json:"max_bytes"`
	FreeBytes      uint64         `json:"free_bytes"`
	TotalFSBytes   uint64         `json:"total_fs_bytes"`
	FreeRatio      float64        `json:"free_ratio"`
	EntrySummaries []EntrySummary `json:"entry_summaries"`
}

// EntrySummary describes the frames cached for one source image.
type EntrySummary struct {
	Hash       string    `json:"hash"`
	Directory  string    `json:"directory"`
	Source     string    `json:"source,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	Frames     int       `json:"frames"`
}

// New builds a cache rooted at root with a budget of maxGiB.
func New(root string, maxGiB int, logger *slog.Logger) *Cache {
	c := &Cache{
		root:     root,
		maxBytes: int64(maxGiB) * 1024 * 1024 * 1024,
		statfs:   realStatfs,
	}
	c.SetLogger(logger)
	return c
}

// NewFromConfig builds the cache described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Cache {
	return New(cfg.FramesDir(), cfg.Cache.MaxGiB, logger)
}

// SetLogger refreshes the cache's logging destination.
func (c *Cache) SetLogger(logger *slog.Logger) {
	c.logger = logging.NewComponentLogger(logger, "framecache")
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.root }

// CleanPath is where the clean frame for hash is stored.
func (c *Cache) CleanPath(hash, sizeTag string) string {
	return filepath.Join(c.entryDir(hash), CleanName(hash, sizeTag))
}

// GlitchPath is where glitch frame seq of hash at amount is stored.
func (c *Cache) GlitchPath(hash string, amount, seq int, sizeTag string) string {
	return filepath.Join(c.entryDir(hash), GlitchName(hash, amount, seq, sizeTag))
}

// CleanName names a clean frame.
func CleanName(hash, sizeTag string) string {
	return joinName(hash, sizeTag)
}

// GlitchName names a glitch frame. Identical inputs always give the same name.
func GlitchName(hash string, amount, seq int, sizeTag string) string {
	return joinName(hash+"_"+strconv.Itoa(amount)+"_"+strconv.Itoa(seq), sizeTag)
}

func joinName(base, sizeTag string) string {
	if sizeTag != "" {
		base += "_" + sizeTag
	}
	return base + ".png"
}

func (c *Cache) entryDir(hash string) string {
	return filepath.Join(c.root, hash)
}

// HasEntry reports whether any frames are cached for hash.
func (c *Cache) HasEntry(hash string) bool {
	info, err := os.Stat(c.entryDir(hash))
	return err == nil && info.IsDir()
}

// Has reports whether a complete frame exists at path.
func (c *Cache) Has(path string) bool {
	return fileutil.Exists(path)
}

// Store writes a frame atomically.
func (c *Cache) Store(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("framecache: create entry: %w", err)
	}
	if err := fileutil.WriteAtomic(path, 0o644, write); err != nil {
		return fmt.Errorf("framecache: store %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Touch marks the entry for hash as recently used.
func (c *Cache) Touch(hash string) {
	now := time.Now()
	_ = os.Chtimes(c.entryDir(hash), now, now)
}

// Prune removes entries based on size and free-space thresholds. Entries whose
// hash is in keep are never deleted; if the limits cannot be met without them
// an error is returned.
func (c *Cache) Prune(ctx context.Context, keep ...string) error {
	entries, totalSize, err := c.scan()
	if err != nil {
		return err
	}
	protected := make(map[string]struct{}, len(keep))
	for _, h := range keep {
		protected[h] = struct{}{}
	}

	for len(entries) > 0 {
		freeOK, err := c.freeSpaceOK()
		if err != nil {
			return err
		}
		if totalSize <= c.maxBytes && freeOK {
			return nil
		}
		oldest := entries[0]
		entries = entries[1:]
		if _, ok := protected[oldest.hash]; ok {
			continue
		}
		if err := os.RemoveAll(oldest.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("framecache: remove %q: %w", oldest.path, err)
		}
		c.logger.InfoContext(ctx, "pruned frame cache entry",
			logging.Hash(oldest.hash),
			logging.Int64("entry_size_bytes", oldest.sizeBytes),
		)
		totalSize -= oldest.sizeBytes
	}

	freeOK, err := c.freeSpaceOK()
	if err != nil {
		return err
	}
	if totalSize > c.maxBytes || !freeOK {
		return fmt.Errorf("framecache: cache over limits and %d active entries cannot be pruned", len(protected))
	}
	return nil
}

// Stats returns current cache usage and filesystem free-space info.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	entries, totalSize, err := c.scan()
	if err != nil {
		return s, err
	}
	totalFS, freeFS, err := c.statfs(c.statRoot())
	if err != nil {
		return s, fmt.Errorf("framecache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	details := make([]EntrySummary, 0, len(entries))
	frames := 0
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		summary := EntrySummary{
			Hash:       entry.hash,
			Directory:  entry.path,
			SizeBytes:  entry.sizeBytes,
			ModifiedAt: entry.modTime,
			Frames:     entry.frames,
		}
		if meta, ok, _ := readMetadata(entry.path); ok {
			summary.Source = meta.SourceName
		}
		frames += entry.frames
		details = append(details, summary)
	}
	s = Stats{
		Entries:        len(entries),
		Frames:         frames,
		TotalBytes:     totalSize,
		MaxBytes:       c.maxBytes,
		FreeBytes:      freeFS,
		TotalFSBytes:   totalFS,
		FreeRatio:      ratio,
		EntrySummaries: details,
	}
	if len(entries) == 0 {
		c.logger.DebugContext(ctx, "frame cache empty")
	}
	return s, nil
}

type cacheEntry struct {
	hash      string
	path      string
	sizeBytes int64
	modTime   time.Time
	frames    int
}

func (c *Cache) scan() ([]cacheEntry, int64, error) {
	entries := make([]cacheEntry, 0)
	var total int64
	rootEntries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, 0, nil
		}
		return nil, 0, fmt.Errorf("framecache: list root: %w", err)
	}
	for _, entry := range rootEntries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(c.root, entry.Name())
		size, mtime, frames, err := entryUsage(path)
		if err != nil {
			logging.WarnWithContext(c.logger, "skip cache entry; excluded from stats and pruning", "framecache_entry_skipped",
				logging.String("entry", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect cache directory permissions or remove the corrupted entry"),
			)
			continue
		}
		total += size
		entries = append(entries, cacheEntry{hash: entry.Name(), path: path, sizeBytes: size, modTime: mtime, frames: frames})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

func entryUsage(path string) (int64, time.Time, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, 0, err
	}
	latest := info.ModTime()
	items, err := os.ReadDir(path)
	if err != nil {
		return 0, time.Time{}, 0, err
	}
	var size int64
	frames := 0
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		fi, err := item.Info()
		if err != nil {
			return 0, time.Time{}, 0, err
		}
		size += fi.Size()
		if strings.HasSuffix(item.Name(), ".png") && !strings.HasPrefix(item.Name(), ".") {
			frames++
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	return size, latest, frames, nil
}

func (c *Cache) freeSpaceOK() (bool, error) {
	total, free, err := c.statfs(c.statRoot())
	if err != nil {
		return false, fmt.Errorf("framecache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	ratio := float64(free) / float64(total)
	return ratio >= freeSpaceFloor, nil
}

// statRoot walks up to the nearest existing directory so statfs works before
// the cache has been created.
func (c *Cache) statRoot() string {
	dir := c.root
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
