// Package magick converts images the built-in codec cannot read by shelling
// out to ImageMagick.
package magick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"glitchreel/internal/services/cmdexec"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec cmdexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ImageMagick CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    cmdexec.Executor
}

// New constructs an ImageMagick client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("magick binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    cmdexec.Command{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ToJPEG converts src into a baseline JPEG at dst. Only the first frame of
// animated or layered sources is kept. dst is written via a temporary name so
// a failed conversion never leaves a partial file behind.
func (c *Client) ToJPEG(ctx context.Context, src, dst string) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return errors.New("source and destination required")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tmp := dst + ".partial.jpg"
	defer os.Remove(tmp)
	args := []string{src + "[0]", "-auto-orient", "-strip", "-interlace", "none", tmp}
	if err := c.exec.Run(runCtx, c.binary, args, nil); err != nil {
		return fmt.Errorf("magick convert: %w", err)
	}
	if _, err := os.Stat(tmp); err != nil {
		return fmt.Errorf("magick produced no output file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("finalize conversion: %w", err)
	}
	return nil
}
