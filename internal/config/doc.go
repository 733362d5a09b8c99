// Package config loads, normalizes, and validates glitchreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GLITCHREEL_CACHE_DIR and XDG_CACHE_HOME. The Config type centralizes every
// knob the pipeline and CLI need: the cache location, frame counts, the
// hold-count cycle, interlacing, rendering and conversion settings.
//
// There is no package-level state. Callers obtain a *Config from Load (or
// Default for tests) and pass it explicitly to every component that needs a
// cache directory or generation parameter.
package config
