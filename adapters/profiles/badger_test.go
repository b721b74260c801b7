package profiles

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(Options{InMemory: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := entities.SpeakerProfile{
		Name:       "Alice",
		Embedding:  []float32{0.1, 0.2, 0.3},
		EnrolledAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, profile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "ALICE")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Lookup should be case-insensitive")
	}
	if got.Name != "Alice" {
		t.Errorf("Display name should survive round trip, got %s", got.Name)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("Embedding corrupted: %v", got.Embedding)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Error("Missing profile should return nil, not an error")
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, entities.SpeakerProfile{Name: "Bob", Embedding: []float32{1}})
	store.Save(ctx, entities.SpeakerProfile{Name: "bob", Embedding: []float32{2}})

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Same name should overwrite, got %d profiles", len(all))
	}
	if all[0].Embedding[0] != 2 {
		t.Error("Second save should win")
	}
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(context.Background(), entities.SpeakerProfile{Name: " "})
	if err == nil {
		t.Error("Blank names should be rejected")
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, entities.SpeakerProfile{Name: "Carol", Embedding: []float32{1}})

	removed, err := store.Remove(ctx, "carol")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Error("Removing an enrolled speaker should report true")
	}

	removed, err = store.Remove(ctx, "carol")
	if err != nil {
		t.Fatalf("Second remove failed: %v", err)
	}
	if removed {
		t.Error("Removing a missing speaker should report false")
	}
}

func TestListNamesSorted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, entities.SpeakerProfile{Name: "Zed", Embedding: []float32{1}})
	store.Save(ctx, entities.SpeakerProfile{Name: "Amy", Embedding: []float32{1}})

	names, err := store.ListNames(ctx)
	if err != nil {
		t.Fatalf("ListNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Amy" || names[1] != "Zed" {
		t.Errorf("Expected sorted [Amy Zed], got %v", names)
	}
}
