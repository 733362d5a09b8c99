// Package codec decodes corrupted JPEG candidates and writes frame artifacts.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"glitchreel/internal/glitch"
)

// Codec decodes and encodes frames. A non-zero Width and Height resize every
// written frame to exactly that size, cropping from the centre.
type Codec struct {
	Width  int
	Height int
}

// New returns a codec that resizes to width x height when both are positive.
func New(width, height int) *Codec {
	if width <= 0 || height <= 0 {
		width, height = 0, 0
	}
	return &Codec{Width: width, Height: height}
}

// Decode implements glitch.Decoder. Every failure is reported as a damaged
// bitstream since the bytes came from a JPEG that decoded before corruption.
func (c *Codec) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w: %w", glitch.ErrMalformed, err)
	}
	return img, nil
}

// Open reads and decodes an image file in any format imaging understands.
func (c *Codec) Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

// Resize applies the configured frame size.
func (c *Codec) Resize(img image.Image) image.Image {
	if c.Width == 0 || c.Height == 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == c.Width && b.Dy() == c.Height {
		return img
	}
	return imaging.Fill(img, c.Width, c.Height, imaging.Center, imaging.Lanczos)
}

// WritePNG resizes img and encodes it as PNG.
func (c *Codec) WritePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, c.Resize(img), imaging.PNG)
}

// WriteJPEG encodes img as JPEG without resizing. Sources are converted at
// full size so corruption always sees the original pixel data.
func (c *Codec) WriteJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

// SizeTag distinguishes cached artifacts produced at different frame sizes.
func (c *Codec) SizeTag() string {
	if c.Width == 0 || c.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}
