// Command glitchreel turns a directory of still images into a glitch-art
// frame sequence.
//
// The run command corrupts each image's JPEG scan data into a series of
// increasingly broken frames, builds a glitch-in, clean hold, glitch-out
// timeline per image, interlaces neighbouring timelines and links the result
// into an output directory as frame_000000000.png onward. The plan command
// previews that layout without touching any image data; cache, runs, status
// and config inspect and maintain the supporting state.
package main
