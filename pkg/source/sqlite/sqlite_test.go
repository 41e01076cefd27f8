package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/source"
	"github.com/worldloom/worldloom/pkg/world"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "worlds.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func eldoria() *world.World {
	return &world.World{
		ID:   "eldoria",
		Name: "Eldoria",
		Elements: []world.Element{
			{ID: "c", Type: world.TypeCharacter, Title: "Corin", Tags: []string{"rogue", "exile"}},
			{ID: "a", Type: world.TypeCharacter, Title: "Aria"},
			{ID: "b", Type: world.TypeLocation, Title: "Bastion", Content: map[string]any{"climate": "cold", "population": 1200.0}},
		},
		Relationships: []world.Relationship{
			{ID: "r1", SourceID: "a", TargetID: "b", Type: "lives_in", Strength: 8, Description: "home"},
			{ID: "r2", SourceID: "b", TargetID: "c", Type: "shelters", Strength: 3, Bidirectional: true},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	if err := store.Save(ctx, eldoria()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "eldoria")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Name != "Eldoria" || len(got.Elements) != 3 || len(got.Relationships) != 2 {
		t.Fatalf("Load = %+v", got)
	}
	// Order is preserved.
	if got.Elements[0].ID != "c" || got.Elements[1].ID != "a" || got.Elements[2].ID != "b" {
		t.Errorf("element order = %s %s %s", got.Elements[0].ID, got.Elements[1].ID, got.Elements[2].ID)
	}
	if tags := got.Elements[0].Tags; len(tags) != 2 || tags[1] != "exile" {
		t.Errorf("tags = %v", tags)
	}
	if got.Elements[1].Tags != nil || got.Elements[1].Content != nil {
		t.Errorf("empty tags/content should load as nil: %+v", got.Elements[1])
	}
	if c := got.Elements[2].Content; c["climate"] != "cold" || c["population"] != 1200.0 {
		t.Errorf("content = %v", c)
	}
	r2 := got.Relationships[1]
	if r2.SourceID != "b" || r2.TargetID != "c" || r2.Strength != 3 || !r2.Bidirectional {
		t.Errorf("r2 = %+v", r2)
	}
	if got.Relationships[0].Description != "home" {
		t.Errorf("r1 description = %q", got.Relationships[0].Description)
	}
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	w := eldoria()
	if err := store.Save(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Name = "Eldoria Reborn"
	w.Elements = w.Elements[:2]
	w.Relationships = nil
	if err := store.Save(ctx, w); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, "eldoria")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Eldoria Reborn" || len(got.Elements) != 2 || len(got.Relationships) != 0 {
		t.Errorf("Load after replace = %+v", got)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	for _, id := range []string{"tidemark", "eldoria"} {
		w := eldoria()
		w.ID = id
		if err := store.Save(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "eldoria" || ids[1] != "tidemark" {
		t.Errorf("List = %v", ids)
	}

	if err := store.Delete(ctx, "eldoria"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "eldoria"); !errors.Is(err, errors.ErrCodeWorldNotFound) {
		t.Errorf("Load deleted world error = %v", err)
	}
	if err := store.Delete(ctx, "eldoria"); !errors.IsNotFound(err) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	store := openTempStore(t)
	w := eldoria()
	w.Elements[0].Type = "dragon"
	if err := store.Save(context.Background(), w); !errors.Is(err, errors.ErrCodeInvalidWorld) {
		t.Errorf("Save error = %v", err)
	}
}

func TestOpenViaDSN(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dsn.db")

	src, err := source.Open(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("source.Open: %v", err)
	}
	defer src.Close()

	if src.Kind() != Kind {
		t.Errorf("Kind = %q", src.Kind())
	}
	if err := src.(source.Writer).Save(ctx, eldoria()); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Load(ctx, "eldoria"); err != nil {
		t.Errorf("Load: %v", err)
	}
	if _, err := src.Load(ctx, "a/../b"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load invalid id error = %v", err)
	}
}
