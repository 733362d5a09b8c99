package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Generate contains the parameters that shape glitch frame generation.
type Generate struct {
	// Amount is the run-level glitch amount (1-100). Frame i of an image's
	// transition requests amount*(i+1)/transition_frames.
	Amount int `toml:"amount"`
	// NormalFrames is the number of clean frames shown per image.
	NormalFrames int `toml:"normal_frames"`
	// TransitionFrames is the combined glitch-in + glitch-out budget; each
	// direction uses half of it.
	TransitionFrames int  `toml:"transition_frames"`
	Shuffle          bool `toml:"shuffle"`
	// Workers bounds concurrent frame generation per image. 0 uses all CPUs.
	Workers int `toml:"workers"`
	// Seed fixes the random source. 0 seeds from the clock.
	Seed uint64 `toml:"seed"`
	// ReseedAttempts is how many fresh seeds a frame gets after its retry
	// loop is exhausted before the frame is dropped.
	ReseedAttempts int `toml:"reseed_attempts"`
}

// Timeline contains frame grouping and interlacing configuration.
type Timeline struct {
	HoldCycle []int `toml:"hold_cycle"`
	// InterlaceCap bounds the interlace width. The default of 1 keeps the
	// historical constant of two interlaced groups.
	InterlaceCap int `toml:"interlace_cap"`
}

// Render contains configuration for turning linked frames into a video.
type Render struct {
	FPS          int    `toml:"fps"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
	VideoCodec   string `toml:"video_codec"`
	PixelFormat  string `toml:"pixel_format"`
	Timeout      int    `toml:"timeout"`
	AV1          bool   `toml:"av1"`
}

// Convert contains configuration for the external ImageMagick converter.
type Convert struct {
	Enabled      bool   `toml:"enabled"`
	MagickBinary string `toml:"magick_binary"`
	Timeout      int    `toml:"timeout"`
}

// Cache contains configuration for the frame cache.
type Cache struct {
	MaxGiB int `toml:"max_gib"`
	// Index records generated frames and runs in an SQLite ledger.
	Index bool `toml:"index"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for glitchreel.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - Generate: glitch amount, frame counts, workers, random seed
//   - Timeline: hold-count cycle and interlace width
//   - Render: ffmpeg and optional AV1 encode settings
//   - Convert: ImageMagick conversion for formats the codec cannot read
//   - Cache: size budget and ledger toggle
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Generate Generate `toml:"generate"`
	Timeline Timeline `toml:"timeline"`
	Render   Render   `toml:"render"`
	Convert  Convert  `toml:"convert"`
	Cache    Cache    `toml:"cache"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("glitchreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FramesDir is the cache subdirectory holding generated PNG frames.
func (c *Config) FramesDir() string {
	return filepath.Join(c.Paths.CacheDir, "frames")
}

// ConvertedDir is the cache subdirectory holding JPEG copies of non-JPEG sources.
func (c *Config) ConvertedDir() string {
	return filepath.Join(c.Paths.CacheDir, "converted")
}

// IndexPath is the location of the SQLite frame ledger.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.CacheDir, "frames.db")
}

// TransitionFramesPerSide returns the number of glitch frames generated per
// image, which is half the configured transition budget.
func (c *Config) TransitionFramesPerSide() int {
	return c.Generate.TransitionFrames / 2
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Render.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// MagickBinary returns the ImageMagick executable name.
func (c *Config) MagickBinary() string {
	if bin := strings.TrimSpace(c.Convert.MagickBinary); bin != "" {
		return bin
	}
	return defaultMagickBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "glitchreel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/glitchreel"
	}
	return filepath.Join(home, ".cache", "glitchreel")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
