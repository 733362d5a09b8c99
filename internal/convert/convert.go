// Package convert brings discovered sources into JPEG form.
//
// JPEG sources pass through untouched. Formats the codec reads are re-encoded
// in process; everything else goes through ImageMagick when it is enabled.
// Converted files are named by the content hash of the original so repeated
// runs reuse them.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"glitchreel/internal/codec"
	"glitchreel/internal/discover"
	"glitchreel/internal/fileutil"
	"glitchreel/internal/services"
)

// jpegQuality keeps re-encoded sources close to the original.
const jpegQuality = 95

// Converter turns an external format into a JPEG file.
type Converter interface {
	ToJPEG(ctx context.Context, src, dst string) error
}

// Preparer resolves sources to JPEG paths.
type Preparer struct {
	dir      string
	codec    *codec.Codec
	external Converter
}

// New returns a preparer writing converted files to dir. external may be nil,
// in which case external formats fail with services.ErrExternalTool.
func New(dir string, c *codec.Codec, external Converter) *Preparer {
	if c == nil {
		c = codec.New(0, 0)
	}
	return &Preparer{dir: dir, codec: c, external: external}
}

// Prepare returns the path of a JPEG holding src's pixels.
func (p *Preparer) Prepare(ctx context.Context, src discover.Source) (string, error) {
	if src.Kind == discover.JPEG {
		return src.Path, nil
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "convert", "read source", src.Name(), err)
	}
	dst := filepath.Join(p.dir, fileutil.ContentHash(data)+".jpg")
	if fileutil.Exists(dst) {
		return dst, nil
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "convert", "create directory", p.dir, err)
	}

	switch src.Kind {
	case discover.Decodable:
		img, err := p.codec.Open(src.Path)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "convert", "decode source", src.Name(), err)
		}
		err = fileutil.WriteAtomic(dst, 0o644, func(w io.Writer) error {
			return p.codec.WriteJPEG(w, img, jpegQuality)
		})
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "convert", "write jpeg", src.Name(), err)
		}
	case discover.External:
		if p.external == nil {
			return "", services.Wrap(services.ErrExternalTool, "convert", "external conversion",
				fmt.Sprintf("%s needs ImageMagick, which is disabled or missing", src.Name()), nil)
		}
		if err := p.external.ToJPEG(ctx, src.Path, dst); err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			return "", services.Wrap(services.ErrExternalTool, "convert", "magick", src.Name(), err)
		}
	default:
		return "", services.Wrap(services.ErrValidation, "convert", "classify", src.Name(), nil)
	}
	return dst, nil
}
