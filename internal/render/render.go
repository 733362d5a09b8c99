// Package render turns a linked frame sequence into a video file with ffmpeg
// and, when enabled, an AV1 copy produced by drapto.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"glitchreel/internal/config"
	"glitchreel/internal/logging"
	"glitchreel/internal/services"
	"glitchreel/internal/services/drapto"
	"glitchreel/internal/services/ffmpeg"
)

// FramePattern is the image2 pattern matching FrameName.
const FramePattern = "frame_%09d.png"

// FrameName returns the output link name for sequence position i.
func FrameName(i int) string {
	return fmt.Sprintf(FramePattern, i)
}

// VideoEncoder runs ffmpeg. ffmpeg.Client satisfies it.
type VideoEncoder interface {
	Encode(ctx context.Context, req ffmpeg.EncodeRequest, progress func(ffmpeg.ProgressUpdate)) (string, error)
	CommandLine(req ffmpeg.EncodeRequest) string
}

// Options carry the encode settings.
type Options struct {
	FPS         int
	Codec       string
	PixelFormat string
}

// Renderer encodes frame directories.
type Renderer struct {
	video  VideoEncoder
	av1    drapto.Encoder
	logger *slog.Logger
	opts   Options
}

// Output lists the files a render produced. AV1 is empty unless requested.
type Output struct {
	Video string
	AV1   string
}

// New builds a renderer. av1 may be nil to disable the AV1 pass.
func New(video VideoEncoder, av1 drapto.Encoder, logger *slog.Logger, opts Options) *Renderer {
	return &Renderer{
		video:  video,
		av1:    av1,
		logger: logging.NewComponentLogger(logger, "render"),
		opts:   opts,
	}
}

// NewFromConfig wires ffmpeg and, when withAV1 is set, the drapto library.
func NewFromConfig(cfg *config.Config, withAV1 bool, logger *slog.Logger) (*Renderer, error) {
	client, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.Render.Timeout)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "ffmpeg client", "check render.ffmpeg_binary", err)
	}
	var av1 drapto.Encoder
	if withAV1 {
		av1 = drapto.NewLibrary(logger)
	}
	return New(client, av1, logger, Options{
		FPS:         cfg.Render.FPS,
		Codec:       cfg.Render.VideoCodec,
		PixelFormat: cfg.Render.PixelFormat,
	}), nil
}

// Request describes the encode of total frames linked in framesDir.
func (r *Renderer) Request(framesDir string, total int, output string) ffmpeg.EncodeRequest {
	return ffmpeg.EncodeRequest{
		Pattern:     filepath.Join(framesDir, FramePattern),
		FPS:         r.opts.FPS,
		TotalFrames: total,
		Codec:       r.opts.Codec,
		PixelFormat: r.opts.PixelFormat,
		Output:      output,
	}
}

// CommandLine is the ffmpeg invocation Render would run.
func (r *Renderer) CommandLine(framesDir string, total int, output string) string {
	return r.video.CommandLine(r.Request(framesDir, total, output))
}

// Render encodes the sequence to output. The AV1 copy is written next to
// output under av1/.
func (r *Renderer) Render(ctx context.Context, framesDir string, total int, output string) (Output, error) {
	if total <= 0 {
		return Output{}, services.Wrap(services.ErrNoFrames, "render", "encode", "no frames linked", nil)
	}
	if strings.TrimSpace(output) == "" {
		return Output{}, services.Wrap(services.ErrValidation, "render", "encode", "video output path required", nil)
	}

	req := r.Request(framesDir, total, output)
	r.logger.Info("launching ffmpeg encode",
		logging.String("command", r.video.CommandLine(req)),
		logging.Int("frames", total),
	)
	sampler := logging.NewProgressSampler(10)
	video, err := r.video.Encode(ctx, req, func(u ffmpeg.ProgressUpdate) {
		if u.Done || sampler.ShouldLog(output, u.Frame, u.Total) {
			r.logger.Info("ffmpeg progress",
				logging.Int("frame", u.Frame),
				logging.Int("total", u.Total),
				logging.Float64("percent", u.Percent),
			)
		}
	})
	if err != nil {
		return Output{}, services.Wrap(services.ErrExternalTool, "render", "ffmpeg encode",
			"ffmpeg failed; check render.ffmpeg_binary and render.video_codec", err)
	}
	out := Output{Video: video}
	r.logger.Info("video rendered", logging.String("video", video))

	if r.av1 == nil {
		return out, nil
	}
	av1Dir := filepath.Join(filepath.Dir(video), "av1")
	encoded, err := r.av1.Encode(ctx, video, av1Dir)
	if err != nil {
		return out, services.Wrap(services.ErrExternalTool, "render", "drapto encode",
			"AV1 encode failed; the ffmpeg render is still available", err)
	}
	out.AV1 = encoded
	r.logger.Info("av1 encode complete", logging.String("av1", encoded))
	return out, nil
}
