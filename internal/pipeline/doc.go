// Package pipeline runs glitchreel end to end.
//
// A run discovers the input images, brings each into JPEG form, generates its
// clean and glitch frames, builds its timeline, and finally interlaces every
// timeline into one sequence that is linked into the output directory as
// frame_%09d.png. Images that cannot be used are skipped with a warning; a
// run in which no image survives fails with services.ErrNoFrames. Nothing is
// linked when the run is cancelled.
//
// The output directory is guarded by a lock file so concurrent runs cannot
// interleave their links.
package pipeline
