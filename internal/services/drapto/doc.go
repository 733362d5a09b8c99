// Package drapto re-encodes rendered videos to AV1 through the drapto
// library. Reporter events are forwarded to slog so encode progress shows up
// alongside the rest of the run.
package drapto
