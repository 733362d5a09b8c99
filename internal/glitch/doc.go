// Package glitch corrupts JPEG byte streams.
//
// HeaderLength finds the start-of-scan boundary, Corrupt writes a
// deterministic set of bytes past it, and Loop drives repeated corruption
// attempts through a Decoder, lowering the iteration count each time the
// decoder rejects the result. The package performs no I/O and holds no
// randomness of its own; callers supply every parameter.
package glitch
