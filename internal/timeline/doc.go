// Package timeline arranges generated frames into the final render order.
//
// Build turns one image's glitch frames and clean frame into a Timeline of
// held FrameGroups. Interlace folds the Timelines of consecutive images into
// a single sequence, trading boundary groups between neighbours so one
// image's outgoing glitch overlaps the next image's incoming glitch.
package timeline
