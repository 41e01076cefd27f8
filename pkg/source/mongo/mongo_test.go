package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("WORLDLOOM_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("WORLDLOOM_TEST_MONGO_URL not set")
	}
	store, err := Open(context.Background(), uri)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	w := &world.World{
		ID:   "worldloom-test-" + t.Name(),
		Name: "Test",
		Elements: []world.Element{
			{ID: "a", Type: world.TypeCharacter, Title: "Aria", Content: map[string]any{"age": "31", "traits": map[string]any{"brave": true}}},
			{ID: "b", Type: world.TypeLocation, Title: "Bastion"},
		},
		Relationships: []world.Relationship{{ID: "r1", SourceID: "a", TargetID: "b", Strength: 6, Bidirectional: true}},
	}
	t.Cleanup(func() { _ = store.Delete(context.Background(), w.ID) })

	if err := store.Save(ctx, w); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, w.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Elements) != 2 || got.Elements[0].Type != world.TypeCharacter || !got.Relationships[0].Bidirectional {
		t.Errorf("Load = %+v", got)
	}
	if traits, ok := got.Elements[0].Content["traits"].(map[string]any); !ok || traits["brave"] != true {
		t.Errorf("nested content = %#v", got.Elements[0].Content["traits"])
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range ids {
		found = found || id == w.ID
	}
	if !found {
		t.Errorf("List missing %s", w.ID)
	}

	if err := store.Delete(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, w.ID); !errors.Is(err, errors.ErrCodeWorldNotFound) {
		t.Errorf("Load after delete error = %v", err)
	}
}

func TestOpenBadURI(t *testing.T) {
	if _, err := Open(context.Background(), "mongodb://%zz"); err == nil {
		t.Error("expected error for malformed uri")
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	err := errors.New(errors.ErrCodeInternal, "boom")
	if got := classify(err); got != error(err) || cache.IsRetryable(got) {
		t.Errorf("classify(%v) = %v", err, got)
	}
}
