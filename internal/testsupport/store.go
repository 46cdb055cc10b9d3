package testsupport

import (
	"context"
	"testing"

	"tether/internal/config"
	"tether/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// EnqueueSession inserts a planned session for tests using the provided store.
func EnqueueSession(t testing.TB, store *queue.Store, key, experiment, subject string) *queue.Item {
	t.Helper()

	item, _, err := store.Enqueue(context.Background(), &queue.Item{
		SessionKey: key,
		Experiment: experiment,
		SubjectID:  subject,
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
