package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/world"
)

func sampleWorld() world.World {
	return world.World{
		ID:   "eldoria",
		Name: "Eldoria",
		Elements: []world.Element{
			{ID: "A", Type: world.TypeCharacter, Title: "Aria"},
			{ID: "B", Type: world.TypeLocation, Title: "Bastion"},
			{ID: "C", Type: world.TypeCharacter, Title: "Corin"},
		},
		Relationships: []world.Relationship{
			{ID: "r1", SourceID: "A", TargetID: "B", Type: "lives_in", Strength: 8},
			{ID: "r2", SourceID: "B", TargetID: "C", Type: "shelters", Strength: 3},
		},
	}
}

func writeWorld(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := graph.WriteWorldFile(sampleWorld(), path); err != nil {
		t.Fatalf("WriteWorldFile: %v", err)
	}
	return path
}

func TestValidateStrategy(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"circular", false},
		{"force", false},
		{"hierarchical", false},
		{"all", false},
		{"Force-Directed", false}, // alias, case-insensitive
		{"spiral", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStrategy(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStrategy(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidStrategy) {
			t.Errorf("ValidateStrategy(%q) code = %s", tt.name, errors.GetCode(err))
		}
	}
}

func TestValidateTypeFilter(t *testing.T) {
	if err := ValidateTypeFilter(""); err != nil {
		t.Errorf("empty filter should pass: %v", err)
	}
	if err := ValidateTypeFilter("faction"); err != nil {
		t.Errorf("faction should pass: %v", err)
	}
	if err := ValidateTypeFilter("dragon"); !errors.Is(err, errors.ErrCodeInvalidElementType) {
		t.Errorf("dragon: got %v, want INVALID_ELEMENT_TYPE", err)
	}
}

func TestValidateForLoad(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"world file", Options{WorldFile: "eldoria.json"}, false},
		{"source", Options{Source: "sqlite://worlds.db", WorldID: "eldoria"}, false},
		{"source without id", Options{Source: "worlds/"}, true},
		{"neither", Options{}, true},
		{"both", Options{WorldFile: "a.json", Source: "file://b.json"}, true},
		{"bad extension", Options{WorldFile: "eldoria.txt"}, true},
		{"traversal id", Options{Source: "file://worlds", WorldID: "../etc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForLoad() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForLoadRequiresWorldID(t *testing.T) {
	opts := Options{Source: "sqlite://worlds.db"}
	err := opts.ValidateForLoad()
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("ValidateForLoad() error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}

	// The backend is never opened.
	runner := NewRunner(nil, nil, nil)
	if _, err := runner.Load(context.Background(), Options{Source: "nosuch://x"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestValidateForLayout(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"all", Options{Strategy: "all"}, false},
		{"bad strategy", Options{Strategy: "spiral"}, true},
		{"bad filter", Options{TypeFilter: "dragon"}, true},
		{"negative width", Options{Width: -1}, true},
		{"negative iterations", Options{Iterations: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLayout()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForLayout() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	var opts Options
	opts.SetLayoutDefaults()
	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy = %q, want %q", opts.Strategy, DefaultStrategy)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}

	opts = Options{Strategy: "circular"}
	opts.SetLayoutDefaults()
	if opts.Strategy != "circular" {
		t.Errorf("explicit strategy overwritten: %q", opts.Strategy)
	}
}

func TestStrategies(t *testing.T) {
	all := (&Options{Strategy: "all"}).Strategies()
	want := []layout.Strategy{layout.Circular, layout.ForceDirected, layout.Hierarchical}
	if len(all) != len(want) {
		t.Fatalf("all = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("all[%d] = %v, want %v", i, all[i], want[i])
		}
	}

	one := (&Options{Strategy: "hierarchical"}).Strategies()
	if len(one) != 1 || one[0] != layout.Hierarchical {
		t.Errorf("hierarchical = %v", one)
	}
}

func TestRequest(t *testing.T) {
	opts := Options{TypeFilter: "character", ShowLabels: true, Seed: 7, Iterations: 10}
	req := opts.Request(layout.ForceDirected)
	if req.Strategy != layout.ForceDirected || !req.ShowLabels {
		t.Errorf("req = %+v", req)
	}
	if req.TypeFilter == nil || *req.TypeFilter != world.TypeCharacter {
		t.Errorf("TypeFilter = %v, want character", req.TypeFilter)
	}
	if req.Options.Seed != 7 || req.Options.Iterations != 10 {
		t.Errorf("Options = %+v", req.Options)
	}

	if req := (&Options{}).Request(layout.Circular); req.TypeFilter != nil {
		t.Errorf("empty filter should be nil, got %v", *req.TypeFilter)
	}

	req = (&Options{Width: 400, Height: 200}).Request(layout.Circular)
	if req.Options.CenterX != 200 || req.Options.CenterY != 100 {
		t.Errorf("center = (%v, %v), want (200, 100)", req.Options.CenterX, req.Options.CenterY)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{WorldFile: "eldoria.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !opts.validated {
		t.Fatal("validated flag not set")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
}

func TestRunnerExecuteAll(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	res, err := runner.Execute(context.Background(), Options{
		WorldFile: writeWorld(t, "eldoria.json"),
		Strategy:  "all",
		Select:    "B",
		Seed:      1,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.World.ID != "eldoria" {
		t.Errorf("World.ID = %q", res.World.ID)
	}
	if res.Stats.ElementCount != 3 || res.Stats.RelationshipCount != 2 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.Snapshots) != 3 || len(res.Layouts) != 3 {
		t.Fatalf("got %d snapshots, %d layouts", len(res.Snapshots), len(res.Layouts))
	}

	want := []layout.Strategy{layout.Circular, layout.ForceDirected, layout.Hierarchical}
	for i, s := range res.Snapshots {
		if s.Request.Strategy != want[i] {
			t.Errorf("snapshot %d strategy = %v, want %v", i, s.Request.Strategy, want[i])
		}
		if s.SelectedID != "B" {
			t.Errorf("snapshot %d SelectedID = %q", i, s.SelectedID)
		}
		if res.Layouts[i].SelectedID != "B" {
			t.Errorf("layout %d SelectedID = %q", i, res.Layouts[i].SelectedID)
		}
	}

	// Hierarchical: characters in the top band, the location in the next.
	b, ok := res.Snapshots[2].Node("B")
	if !ok {
		t.Fatal("B missing from hierarchical snapshot")
	}
	if math.Abs(b.X-500) > 1e-6 || math.Abs(b.Y-540) > 1e-6 {
		t.Errorf("B = (%v, %v), want (500, 540)", b.X, b.Y)
	}
}

func TestRunnerExecuteTypeFilter(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), Options{
		WorldFile:  writeWorld(t, "eldoria.yaml"),
		Strategy:   "hierarchical",
		TypeFilter: "character",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	snap := res.Snapshots[0]
	if len(snap.Nodes) != 2 || len(snap.Edges) != 0 {
		t.Errorf("got %d nodes, %d edges; want 2, 0", len(snap.Nodes), len(snap.Edges))
	}
}

func TestRunnerExecuteInvalid(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		WorldFile: writeWorld(t, "eldoria.json"),
		Strategy:  "spiral",
	})
	if !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("got %v, want INVALID_STRATEGY", err)
	}

	_, err = runner.Execute(context.Background(), Options{
		WorldFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunnerLoadSourceCached(t *testing.T) {
	dir := t.TempDir()
	if err := graph.WriteWorldFile(sampleWorld(), filepath.Join(dir, "eldoria.toml")); err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{Source: "file://" + dir, WorldID: "eldoria"}
	ctx := context.Background()

	w, err := runner.Load(ctx, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(w.Elements) != 3 {
		t.Fatalf("elements = %d", len(w.Elements))
	}

	key := runner.Keyer.WorldKey(opts.Source, opts.WorldID)
	if _, ok, _ := c.Get(ctx, key); !ok {
		t.Error("world should be cached after load")
	}

	opts.Refresh = true
	if _, err := runner.Load(ctx, opts); err != nil {
		t.Fatalf("Load with refresh: %v", err)
	}

	if _, err := runner.Load(ctx, Options{Source: "file://" + dir, WorldID: "atlantis"}); !errors.IsNotFound(err) {
		t.Errorf("missing world: got %v, want not found", err)
	}
}

func TestRunnerLayoutAllCancelled(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	w := sampleWorld()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.LayoutAll(ctx, &w, Options{Strategy: "all"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
