package testsupport

import (
	"context"
	"testing"

	"vapord/internal/config"
	"vapord/internal/journal"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordOutcome records an outcome for tests using the provided store.
func RecordOutcome(t testing.TB, store *journal.Store, outcome journal.Outcome) journal.Outcome {
	t.Helper()

	recorded, err := store.Record(context.Background(), outcome)
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return recorded
}
