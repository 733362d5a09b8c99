// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, image names, and frame indexes for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers decide
//     whether a failure is contained (skip one frame or one image) or fatal
//     for the whole run.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
