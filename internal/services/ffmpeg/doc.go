// Package ffmpeg wraps the ffmpeg CLI for encoding linked frame sequences
// into a video.
//
// The client builds the image2 input arguments, runs ffmpeg through an
// injectable Executor, and parses -progress output into frame counts so
// callers can report progress without scraping stderr.
package ffmpeg
