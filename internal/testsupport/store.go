package testsupport

import (
	"testing"

	"glitchreel/internal/config"
	"glitchreel/internal/frameindex"
)

// MustOpenIndex opens the frame ledger for cfg and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *frameindex.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := frameindex.Open(cfg.IndexPath())
	if err != nil {
		t.Fatalf("frameindex.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
