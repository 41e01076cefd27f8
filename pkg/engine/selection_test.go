package engine

import (
	"context"
	"testing"

	"github.com/worldloom/worldloom/pkg/core/layout"
)

func selected(s *Snapshot) []string {
	var ids []string
	for _, n := range s.Nodes {
		if n.Selected {
			ids = append(ids, n.ID())
		}
	}
	return ids
}

func TestSnapshotSelect(t *testing.T) {
	elements, rels := scenario()
	snap, err := Recompute(context.Background(), elements, rels, Request{Strategy: layout.Circular})
	if err != nil {
		t.Fatal(err)
	}

	sel := snap.Select("B")
	if got := selected(sel); len(got) != 1 || got[0] != "B" {
		t.Errorf("selected = %v, want [B]", got)
	}
	if sel.SelectedID != "B" {
		t.Errorf("SelectedID = %q, want B", sel.SelectedID)
	}
	if got := selected(snap); len(got) != 0 {
		t.Errorf("original snapshot mutated: selected = %v", got)
	}

	// Edges observe the new flags through their node pointers.
	for _, e := range sel.Edges {
		if e.Source.ID() == "B" && !e.Source.Selected {
			t.Error("edge source does not see selection")
		}
		if e.Target.ID() == "B" && !e.Target.Selected {
			t.Error("edge target does not see selection")
		}
	}

	// Moving the selection clears the old one.
	moved := sel.Select("A")
	if got := selected(moved); len(got) != 1 || got[0] != "A" {
		t.Errorf("selected = %v, want [A]", got)
	}

	// Clearing restores the unselected positions exactly.
	cleared := moved.Select("")
	if got := selected(cleared); len(got) != 0 {
		t.Errorf("selected after clear = %v, want none", got)
	}
	for i := range snap.Nodes {
		if cleared.Nodes[i].X != snap.Nodes[i].X || cleared.Nodes[i].Y != snap.Nodes[i].Y {
			t.Errorf("node %s moved during selection", snap.Nodes[i].ID())
		}
	}
}

func TestSnapshotSelectUnknown(t *testing.T) {
	elements, rels := scenario()
	snap, _ := Recompute(context.Background(), elements, rels, Request{Strategy: layout.Circular})

	sel := snap.Select("A").Select("nobody")
	if got := selected(sel); len(got) != 0 {
		t.Errorf("selected = %v, want none", got)
	}
	if sel.SelectedID != "" {
		t.Errorf("SelectedID = %q, want empty", sel.SelectedID)
	}
}

func TestSelectNodesDuplicateIDs(t *testing.T) {
	elements, _ := scenario()
	elements = append(elements, el("A", "character"))
	snap, _ := Recompute(context.Background(), elements, nil, Request{Strategy: layout.Circular})

	if got := selected(snap.Select("A")); len(got) != 2 {
		t.Errorf("selected = %v, want both A nodes", got)
	}
}
