package layout

import (
	"math"
	"testing"

	"github.com/worldloom/worldloom/pkg/world"
)

const eps = 1e-9

func el(id string, t world.ElementType) world.Element {
	return world.Element{ID: id, Type: t, Title: id}
}

func rel(id, from, to string, strength int) world.Relationship {
	return world.Relationship{ID: id, SourceID: from, TargetID: to, Type: "knows", Strength: strength}
}

// scenario is the three-element world used throughout the package tests:
// A(character) -8-> B(location) -3-> C(character).
func scenario() ([]world.Element, []world.Relationship) {
	elements := []world.Element{
		el("A", world.TypeCharacter),
		el("B", world.TypeLocation),
		el("C", world.TypeCharacter),
	}
	rels := []world.Relationship{
		rel("r1", "A", "B", 8),
		rel("r2", "B", "C", 3),
	}
	return elements, rels
}

func TestConnectionCounts(t *testing.T) {
	elements, rels := scenario()

	tests := []struct {
		name string
		rels []world.Relationship
		want map[string]int
	}{
		{
			name: "chain",
			rels: rels,
			want: map[string]int{"A": 1, "B": 2, "C": 1},
		},
		{
			name: "bidirectional counts once per endpoint",
			rels: append(rels[:2:2], world.Relationship{ID: "r3", SourceID: "A", TargetID: "B", Strength: 5, Bidirectional: true}),
			want: map[string]int{"A": 2, "B": 3, "C": 1},
		},
		{
			name: "self loop",
			rels: []world.Relationship{rel("r", "A", "A", 1)},
			want: map[string]int{"A": 2},
		},
		{
			name: "unknown ids are counted",
			rels: []world.Relationship{rel("r", "A", "ghost", 1)},
			want: map[string]int{"A": 1, "ghost": 1},
		},
		{
			name: "empty",
			rels: nil,
			want: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildConnectionCounts(elements, tt.rels)
			if len(got) != len(tt.want) {
				t.Fatalf("counts = %v, want %v", got, tt.want)
			}
			for id, n := range tt.want {
				if got[id] != n {
					t.Errorf("counts[%q] = %d, want %d", id, got[id], n)
				}
			}
		})
	}
}

func TestNormalizedStrength(t *testing.T) {
	tests := []struct {
		in   int
		want float64
	}{
		{1, 0.1},
		{8, 0.8},
		{10, 1},
		{0, 0},
		{15, 1},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := NormalizedStrength(tt.in); math.Abs(got-tt.want) > eps {
			t.Errorf("NormalizedStrength(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProjectEdges(t *testing.T) {
	elements, rels := scenario()
	rels = append(rels, rel("dangling", "A", "missing", 5), rel("orphan", "nobody", "C", 5))
	nodes := PlaceCircular(elements, ConnectionCounts(rels), Options{})

	edges := ProjectEdges(nodes, rels)
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}

	first := edges[0]
	if first.Relationship.ID != "r1" {
		t.Errorf("edges[0] = %s, want r1", first.Relationship.ID)
	}
	if first.Source != &nodes[0] || first.Target != &nodes[1] {
		t.Error("edge endpoints should point into the node slice")
	}
	if math.Abs(first.Strength-0.8) > eps {
		t.Errorf("Strength = %v, want 0.8", first.Strength)
	}
}

func TestProjectEdgesDuplicateIDsResolveToFirst(t *testing.T) {
	nodes := []Node{
		{Element: el("A", world.TypeItem), X: 1},
		{Element: el("A", world.TypeItem), X: 2},
		{Element: el("B", world.TypeItem)},
	}
	edges := ProjectEdges(nodes, []world.Relationship{rel("r", "A", "B", 2)})
	if len(edges) != 1 || edges[0].Source != &nodes[0] {
		t.Fatalf("edge should resolve to the first node with id A")
	}
}

func TestStrategyParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"circular", Circular, false},
		{"Circle", Circular, false},
		{"force", ForceDirected, false},
		{"force-directed", ForceDirected, false},
		{" HIERARCHICAL ", Hierarchical, false},
		{"grid", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrategyText(t *testing.T) {
	for _, s := range Strategies {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var back Strategy
		if err := back.UnmarshalText(b); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", b, back, err, s)
		}
	}
	if _, err := Strategy(9).MarshalText(); err == nil {
		t.Error("MarshalText should reject undeclared strategies")
	}
	if Strategy(9).Valid() {
		t.Error("Strategy(9).Valid() = true")
	}
}

func TestPlaceDispatch(t *testing.T) {
	elements, rels := scenario()
	counts := ConnectionCounts(rels)
	opts := Options{Seed: 7}

	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			nodes := Place(s, elements, rels, counts, opts)
			if len(nodes) != len(elements) {
				t.Fatalf("len(nodes) = %d, want %d", len(nodes), len(elements))
			}
			for _, n := range nodes {
				if n.Connections != counts[n.ID()] {
					t.Errorf("%s connections = %d, want %d", n.ID(), n.Connections, counts[n.ID()])
				}
			}
		})
	}
}

func TestPlacePanicsOnUnknownStrategy(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Place should panic on an undeclared strategy")
		}
	}()
	Place(Strategy(42), nil, nil, nil, Options{})
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{}.WithDefaults()
	want := Options{
		Width: 1000, Height: 1000, Radius: 300, CenterX: 500, CenterY: 500,
		Iterations: 50, Repulsion: 10000, Attraction: 0.01, Damping: 0.1,
		Margin: 50, RowHeight: 80,
	}
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}

	custom := Options{Width: 400, CenterX: 10, Seed: 3}.WithDefaults()
	if custom.Width != 400 || custom.CenterX != 10 || custom.CenterY != 0 || custom.Seed != 3 {
		t.Errorf("WithDefaults() overrode explicit values: %+v", custom)
	}
}
