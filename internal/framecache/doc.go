// Package framecache stores generated frames so repeated runs with the same
// source bytes and parameters skip corruption entirely.
//
// Frames for one source image live together in a directory named by the
// source's content hash. Clean frames are named <hash>[_WxH].png and glitch
// frames <hash>_<amount>_<seq>[_WxH].png. Every file is written under a
// temporary name and renamed, so a frame is visible only once complete.
//
// # Size Management
//
// The cache enforces a size budget (cache.max_gib) and a 20% free-space floor
// on the underlying volume. When either limit is exceeded, whole source
// entries are removed oldest first. Entries used by the current run are
// protected. Manual pruning is available via `glitchreel cache prune`.
//
// Entries can be moved between machines with `glitchreel cache export` and
// `glitchreel cache import`, which stream a zstd-compressed tar archive.
package framecache
