package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGenerate(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateGenerate() error {
	if c.Generate.Amount < MinAmount || c.Generate.Amount > MaxAmount {
		return fmt.Errorf("generate.amount must be between %d and %d", MinAmount, MaxAmount)
	}
	if c.Generate.NormalFrames < 0 {
		return errors.New("generate.normal_frames must be >= 0")
	}
	if c.Generate.TransitionFrames < 0 {
		return errors.New("generate.transition_frames must be >= 0")
	}
	return nil
}

func (c *Config) validateTimeline() error {
	for i, hold := range c.Timeline.HoldCycle {
		if hold <= 0 {
			return fmt.Errorf("timeline.hold_cycle[%d] must be positive", i)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.fps":      c.Render.FPS,
		"render.timeout":  c.Render.Timeout,
		"convert.timeout": c.Convert.Timeout,
	}); err != nil {
		return err
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return errors.New("render.width and render.height must be >= 0")
	}
	if (c.Render.Width == 0) != (c.Render.Height == 0) {
		return errors.New("render.width and render.height must be set together")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.MaxGiB <= 0 {
		return errors.New("cache.max_gib must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
