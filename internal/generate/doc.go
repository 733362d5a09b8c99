// Package generate produces the clean and glitch frames for one source image.
//
// Every glitch frame request for an image runs on a bounded errgroup; the
// group's Wait is the barrier after which the ordered frame list is handed
// to the timeline builder. Seeds are drawn from the injected random source
// before any work is dispatched, so results do not depend on scheduling.
// Frames whose corruption cannot be decoded after every reseed are dropped
// and logged; they never appear in the result.
package generate
