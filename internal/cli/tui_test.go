package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/world"
)

func inspectModel(t *testing.T) NodeListModel {
	t.Helper()
	coord := engine.NewCoordinator(nil)
	elements := []world.Element{
		{ID: "A", Type: world.TypeCharacter, Title: "Aria"},
		{ID: "B", Type: world.TypeLocation, Title: "Bastion"},
		{ID: "C", Type: world.TypeCharacter, Title: "Corin"},
	}
	rels := []world.Relationship{
		{ID: "r1", SourceID: "A", TargetID: "B", Type: "lives_in", Strength: 8},
		{ID: "r2", SourceID: "B", TargetID: "C", Type: "shelters", Strength: 3, Bidirectional: true},
	}
	if _, _, err := coord.Recompute(context.Background(), elements, rels, engine.Request{Strategy: layout.Circular}); err != nil {
		t.Fatal(err)
	}
	return NewNodeListModel(coord)
}

func press(m NodeListModel, keys ...string) NodeListModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(NodeListModel)
	}
	return m
}

func TestNodeListNavigation(t *testing.T) {
	m := inspectModel(t)

	m = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
	m = press(m, "down", "j", "down")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.Cursor)
	}
	m = press(m, "k")
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}
}

func TestNodeListSelect(t *testing.T) {
	m := inspectModel(t)

	m = press(m, "down", "enter")
	if m.Snap.SelectedID != "B" {
		t.Fatalf("SelectedID = %q, want B", m.Snap.SelectedID)
	}
	if m.Coord.Current().SelectedID != "B" {
		t.Error("selection not published to coordinator")
	}

	view := m.View()
	for _, want := range []string{"Bastion", "lives_in", "shelters"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "x")
	if m.Snap.SelectedID != "" {
		t.Errorf("SelectedID = %q after clear", m.Snap.SelectedID)
	}
	if !strings.Contains(m.View(), "Nothing selected") {
		t.Error("view should show empty selection")
	}
}

func TestNodeListQuit(t *testing.T) {
	m := inspectModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestEdgeLines(t *testing.T) {
	m := inspectModel(t)
	lines := edgeLines(m.Snap, "B")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "← A") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "↔ C") {
		t.Errorf("line 1 = %q", lines[1])
	}

	if lines := edgeLines(m.Snap, "missing"); len(lines) != 1 {
		t.Errorf("missing node: %v", lines)
	}
}

func TestNodeListNoSnapshot(t *testing.T) {
	m := NewNodeListModel(engine.NewCoordinator(nil))
	if !strings.Contains(m.View(), "No layout yet") {
		t.Error("expected empty view")
	}
	m = press(m, "enter", "down")
	if m.Snap != nil {
		t.Error("snapshot should stay nil")
	}
}
