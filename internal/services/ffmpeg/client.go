package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"glitchreel/internal/services/cmdexec"
)

// ProgressUpdate reports encoder progress.
type ProgressUpdate struct {
	Frame   int
	Total   int
	Percent float64
	Done    bool
}

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

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    cmdexec.Executor
}

// New constructs an ffmpeg client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
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

// EncodeRequest describes a frame sequence to encode.
type EncodeRequest struct {
	// Pattern is an image2 input such as /out/frame_%09d.png.
	Pattern     string
	FPS         int
	TotalFrames int
	Codec       string
	PixelFormat string
	Output      string
}

// Args returns the ffmpeg argument list for req.
func Args(req EncodeRequest) []string {
	args := []string{
		"-hide_banner", "-nostats", "-y",
		"-framerate", strconv.Itoa(req.FPS),
		"-i", req.Pattern,
	}
	if req.Codec != "" {
		args = append(args, "-c:v", req.Codec)
	}
	if req.PixelFormat != "" {
		args = append(args, "-pix_fmt", req.PixelFormat)
	}
	return append(args, "-progress", "pipe:1", req.Output)
}

// CommandLine renders a shell-friendly ffmpeg invocation for req.
func (c *Client) CommandLine(req EncodeRequest) string {
	args := []string{"-framerate", strconv.Itoa(req.FPS), "-i", req.Pattern}
	if req.Codec != "" {
		args = append(args, "-c:v", req.Codec)
	}
	if req.PixelFormat != "" {
		args = append(args, "-pix_fmt", req.PixelFormat)
	}
	args = append(args, req.Output)
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, c.binary)
	for _, a := range args {
		if strings.ContainsAny(a, " \t'\"") {
			a = strconv.Quote(a)
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}

// Encode runs ffmpeg for req and returns the output path once it exists.
func (c *Client) Encode(ctx context.Context, req EncodeRequest, progress func(ProgressUpdate)) (string, error) {
	if strings.TrimSpace(req.Output) == "" {
		return "", errors.New("output path required")
	}
	if req.FPS <= 0 {
		return "", fmt.Errorf("invalid frame rate %d", req.FPS)
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(runCtx, c.binary, Args(req), func(line string) {
		if progress == nil {
			return
		}
		if update, ok := parseProgress(line, req.TotalFrames); ok {
			progress(update)
		}
	}); err != nil {
		return "", fmt.Errorf("ffmpeg encode: %w", err)
	}

	if _, err := os.Stat(req.Output); errors.Is(err, os.ErrNotExist) {
		return "", errors.New("ffmpeg produced no output file")
	}
	return req.Output, nil
}

// parseProgress reads the key=value lines of -progress output. Only frame and
// progress keys produce updates.
func parseProgress(line string, total int) (ProgressUpdate, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return ProgressUpdate{}, false
	}
	switch key {
	case "frame":
		frame, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return ProgressUpdate{}, false
		}
		update := ProgressUpdate{Frame: frame, Total: total, Percent: -1}
		if total > 0 {
			update.Percent = min(100, float64(frame)/float64(total)*100)
		}
		return update, true
	case "progress":
		if strings.TrimSpace(value) != "end" {
			return ProgressUpdate{}, false
		}
		return ProgressUpdate{Frame: total, Total: total, Percent: 100, Done: true}, true
	}
	return ProgressUpdate{}, false
}
