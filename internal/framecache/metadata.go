package framecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"glitchreel/internal/fileutil"
)

const (
	metadataVersion  = 1
	metadataFileName = "glitchreel.source.json"
)

// EntryMetadata records where a cache entry's frames came from.
type EntryMetadata struct {
	Version    int       `json:"version"`
	Hash       string    `json:"hash"`
	SourceName string    `json:"source_name,omitempty"`
	SourcePath string    `json:"source_path,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// WriteMetadata stores source details alongside the entry for hash. An
// existing record is kept so the original creation time survives.
func (c *Cache) WriteMetadata(meta EntryMetadata) error {
	if meta.Hash == "" {
		return errors.New("framecache: metadata hash is empty")
	}
	dir := c.entryDir(meta.Hash)
	if _, ok, err := readMetadata(dir); err == nil && ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("framecache: create entry: %w", err)
	}
	meta.Version = metadataVersion
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	return fileutil.WriteAtomic(filepath.Join(dir, metadataFileName), 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
}

// LoadMetadata returns the source record for hash.
func (c *Cache) LoadMetadata(hash string) (EntryMetadata, bool, error) {
	return readMetadata(c.entryDir(hash))
}

func readMetadata(dir string) (EntryMetadata, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EntryMetadata{}, false, nil
		}
		return EntryMetadata{}, false, err
	}
	var meta EntryMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return EntryMetadata{}, false, fmt.Errorf("framecache: parse metadata: %w", err)
	}
	return meta, true, nil
}
