package config

import "glitchreel/internal/timeline"

const (
	defaultConfigPath       = "~/.config/glitchreel/config.toml"
	defaultLogDir           = "~/.local/share/glitchreel/logs"
	defaultAmount           = 50
	defaultNormalFrames     = 25 * 25
	defaultTransitionFrames = 30
	defaultReseedAttempts   = 3
	defaultInterlaceCap     = 1
	defaultFPS              = 25
	defaultFFmpegBinary     = "ffmpeg"
	defaultVideoCodec       = "libx264"
	defaultPixelFormat      = "yuv420p"
	defaultRenderTimeout    = 3600
	defaultMagickBinary     = "magick"
	defaultConvertTimeout   = 120
	defaultCacheMaxGiB      = 20
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	// MinAmount and MaxAmount bound the run-level glitch amount.
	MinAmount = 1
	MaxAmount = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Generate: Generate{
			Amount:           defaultAmount,
			NormalFrames:     defaultNormalFrames,
			TransitionFrames: defaultTransitionFrames,
			ReseedAttempts:   defaultReseedAttempts,
		},
		Timeline: Timeline{
			HoldCycle:    timeline.DefaultHoldCycle(),
			InterlaceCap: defaultInterlaceCap,
		},
		Render: Render{
			FPS:          defaultFPS,
			FFmpegBinary: defaultFFmpegBinary,
			VideoCodec:   defaultVideoCodec,
			PixelFormat:  defaultPixelFormat,
			Timeout:      defaultRenderTimeout,
		},
		Convert: Convert{
			Enabled:      true,
			MagickBinary: defaultMagickBinary,
			Timeout:      defaultConvertTimeout,
		},
		Cache: Cache{
			MaxGiB: defaultCacheMaxGiB,
			Index:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
