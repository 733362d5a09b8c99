package config

import (
	"fmt"
	"os"
	"strings"

	"glitchreel/internal/timeline"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenerate()
	c.normalizeTimeline()
	c.normalizeRender()
	c.normalizeConvert()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("GLITCHREEL_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

// normalizeGenerate clamps the amount the same way the CLI flag does.
func (c *Config) normalizeGenerate() {
	c.Generate.Amount = ClampAmount(c.Generate.Amount)
	if c.Generate.Workers < 0 {
		c.Generate.Workers = 0
	}
	if c.Generate.ReseedAttempts < 0 {
		c.Generate.ReseedAttempts = 0
	}
}

func (c *Config) normalizeTimeline() {
	if len(c.Timeline.HoldCycle) == 0 {
		c.Timeline.HoldCycle = timeline.DefaultHoldCycle()
	}
	if c.Timeline.InterlaceCap <= 0 {
		c.Timeline.InterlaceCap = defaultInterlaceCap
	}
}

func (c *Config) normalizeRender() {
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	c.Render.VideoCodec = strings.TrimSpace(c.Render.VideoCodec)
	if c.Render.VideoCodec == "" {
		c.Render.VideoCodec = defaultVideoCodec
	}
	c.Render.PixelFormat = strings.TrimSpace(c.Render.PixelFormat)
	if c.Render.PixelFormat == "" {
		c.Render.PixelFormat = defaultPixelFormat
	}
	if c.Render.Timeout <= 0 {
		c.Render.Timeout = defaultRenderTimeout
	}
}

func (c *Config) normalizeConvert() {
	c.Convert.MagickBinary = strings.TrimSpace(c.Convert.MagickBinary)
	if c.Convert.MagickBinary == "" {
		c.Convert.MagickBinary = defaultMagickBinary
	}
	if c.Convert.Timeout <= 0 {
		c.Convert.Timeout = defaultConvertTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// ClampAmount bounds a run-level glitch amount to [MinAmount, MaxAmount].
func ClampAmount(amount int) int {
	return max(MinAmount, min(MaxAmount, amount))
}
