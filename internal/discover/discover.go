// Package discover finds source images under an input directory.
package discover

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Kind says how a source reaches the JPEG form corruption needs.
type Kind int

const (
	// JPEG sources are corrupted directly.
	JPEG Kind = iota
	// Decodable sources are re-encoded to JPEG in process.
	Decodable
	// External sources need ImageMagick.
	External
)

func (k Kind) String() string {
	switch k {
	case JPEG:
		return "jpeg"
	case Decodable:
		return "decodable"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var extensions = map[string]Kind{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  Decodable,
	".gif":  Decodable,
	".bmp":  Decodable,
	".tif":  Decodable,
	".tiff": Decodable,
	".webp": External,
	".heic": External,
	".heif": External,
	".avif": External,
	".jxl":  External,
}

// Source is one discovered image.
type Source struct {
	Path string
	Kind Kind
}

// Name is the file name used in logs.
func (s Source) Name() string {
	return filepath.Base(s.Path)
}

// Classify reports the kind of path by extension.
func Classify(path string) (Kind, bool) {
	kind, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// Find walks root in lexical order and returns every supported image. Hidden
// files and directories are skipped; unsupported files are ignored.
func Find(root string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if kind, ok := Classify(name); ok {
			sources = append(sources, Source{Path: path, Kind: kind})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return sources, nil
}
