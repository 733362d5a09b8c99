package framecache

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"glitchreel/internal/fileutil"
	"glitchreel/internal/logging"
)

// ArchiveResult counts what an export or import touched.
type ArchiveResult struct {
	Entries int
	Files   int
	Skipped int
	Bytes   int64
}

// Export streams every cache entry into w as a zstd-compressed tar archive.
// When hashes is non-empty only those entries are written.
func (c *Cache) Export(ctx context.Context, w io.Writer, hashes ...string) (ArchiveResult, error) {
	var res ArchiveResult
	entries, _, err := c.scan()
	if err != nil {
		return res, err
	}
	wanted := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		wanted[h] = struct{}{}
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return res, fmt.Errorf("framecache: zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, entry := range entries {
		if len(wanted) > 0 {
			if _, ok := wanted[entry.hash]; !ok {
				continue
			}
		}
		files, err := os.ReadDir(entry.path)
		if err != nil {
			_ = zw.Close()
			return res, fmt.Errorf("framecache: list %s: %w", entry.hash, err)
		}
		res.Entries++
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				_ = zw.Close()
				return res, err
			}
			if !f.Type().IsRegular() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			n, err := addFile(tw, filepath.Join(entry.path, f.Name()), path.Join(entry.hash, f.Name()))
			if err != nil {
				_ = zw.Close()
				return res, err
			}
			res.Files++
			res.Bytes += n
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return res, fmt.Errorf("framecache: finish tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("framecache: finish zstd: %w", err)
	}
	return res, nil
}

func addFile(tw *tar.Writer, src, name string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("framecache: tar header %s: %w", name, err)
	}
	n, err := io.Copy(tw, f)
	if err != nil {
		return n, fmt.Errorf("framecache: tar body %s: %w", name, err)
	}
	return n, nil
}

// Import extracts an archive produced by Export. Frames already present are
// left alone. Members that do not look like cache files are skipped.
func (c *Cache) Import(ctx context.Context, r io.Reader) (ArchiveResult, error) {
	var res ArchiveResult
	zr, err := zstd.NewReader(r)
	if err != nil {
		return res, fmt.Errorf("framecache: zstd reader: %w", err)
	}
	defer zr.Close()

	seen := map[string]struct{}{}
	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("framecache: read archive: %w", err)
		}
		hash, name, ok := memberPath(hdr)
		if !ok {
			logging.WarnWithContext(c.logger, "skipping unexpected archive member", "framecache_import_skipped",
				logging.String("member", hdr.Name),
				logging.String(logging.FieldImpact, "member not imported"),
			)
			res.Skipped++
			continue
		}
		if _, ok := seen[hash]; !ok {
			seen[hash] = struct{}{}
			res.Entries++
		}
		dst := filepath.Join(c.entryDir(hash), name)
		if fileutil.Exists(dst) {
			res.Skipped++
			continue
		}
		if err := c.Store(dst, func(w io.Writer) error {
			n, err := io.Copy(w, tr)
			res.Bytes += n
			return err
		}); err != nil {
			return res, err
		}
		res.Files++
	}
	return res, nil
}

// memberPath validates a tar member as <hash>/<file>.
func memberPath(hdr *tar.Header) (string, string, bool) {
	if hdr.Typeflag != tar.TypeReg {
		return "", "", false
	}
	clean := path.Clean(hdr.Name)
	hash, name, ok := strings.Cut(clean, "/")
	if !ok || !isHash(hash) || name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return "", "", false
	}
	if name != metadataFileName && !strings.HasPrefix(name, hash) {
		return "", "", false
	}
	return hash, name, true
}

func isHash(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
