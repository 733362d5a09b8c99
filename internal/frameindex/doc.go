// Package frameindex keeps an SQLite ledger of generated frames and runs.
//
// The frame cache on disk is authoritative for whether a frame exists; the
// ledger adds what the file name cannot carry: the seed and iteration count
// that produced each glitch frame, how many decode attempts it took, and
// which run created it. Runs record their inputs, outputs, and outcome so
// `glitchreel runs` can list history.
//
// The database uses WAL mode with a busy timeout, and writes retry briefly on
// SQLITE_BUSY so concurrent frame workers can record results safely.
package frameindex
