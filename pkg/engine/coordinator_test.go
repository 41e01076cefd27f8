package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/worldloom/worldloom/pkg/core/layout"
)

type recorder struct {
	mu   sync.Mutex
	seqs []uint64
	sel  []string
}

func (r *recorder) OnSnapshot(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, s.Seq)
	r.sel = append(r.sel, s.SelectedID)
}

func TestCoordinatorRecompute(t *testing.T) {
	elements, rels := scenario()
	rec := &recorder{}
	c := NewCoordinator(nil, rec)

	if c.Current() != nil {
		t.Fatal("Current should be nil before the first publish")
	}

	snap, published, err := c.Recompute(context.Background(), elements, rels, Request{Strategy: layout.Circular})
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !published {
		t.Error("first snapshot should be published")
	}
	if snap.Seq != 1 || c.Current() != snap {
		t.Errorf("Current = %v, want seq 1 snapshot", c.Current())
	}
	if len(rec.seqs) != 1 || rec.seqs[0] != 1 {
		t.Errorf("observer saw %v, want [1]", rec.seqs)
	}
}

func TestCoordinatorLastSubmittedWins(t *testing.T) {
	elements, rels := scenario()
	c := NewCoordinator(nil)
	ctx := context.Background()

	first := c.Submit(ctx, elements, rels, Request{Strategy: layout.ForceDirected, Options: layout.Options{Iterations: 500, Seed: 1}})
	second := c.Submit(ctx, elements, rels, Request{Strategy: layout.Circular})
	c.Wait()

	if first.Seq >= second.Seq {
		t.Fatalf("sequences not increasing: %d, %d", first.Seq, second.Seq)
	}
	if got := c.Current(); got.Seq != second.Seq || got.Request.Strategy != layout.Circular {
		t.Errorf("Current = seq %d %s, want seq %d circular", got.Seq, got.Request.Strategy, second.Seq)
	}
}

func TestCoordinatorDiscardsStale(t *testing.T) {
	c := NewCoordinator(nil)
	ctx := context.Background()

	if _, ok := c.publish(ctx, &Snapshot{Seq: 2}); !ok {
		t.Fatal("seq 2 should publish")
	}
	if _, ok := c.publish(ctx, &Snapshot{Seq: 1}); ok {
		t.Error("seq 1 should be discarded after seq 2")
	}
	if _, ok := c.publish(ctx, &Snapshot{Seq: 2}); ok {
		t.Error("equal sequence should be discarded")
	}
	if got := c.Current().Seq; got != 2 {
		t.Errorf("Current().Seq = %d, want 2", got)
	}
}

func TestCoordinatorFailedRequestKeepsCurrent(t *testing.T) {
	elements, rels := scenario()
	c := NewCoordinator(nil)
	ctx := context.Background()

	good, _, err := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Circular})
	if err != nil {
		t.Fatal(err)
	}
	if _, published, err := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Strategy(9)}); err == nil || published {
		t.Errorf("invalid request: published=%v err=%v", published, err)
	}
	if c.Current() != good {
		t.Error("failed request replaced the published snapshot")
	}
}

func TestCoordinatorSelection(t *testing.T) {
	elements, rels := scenario()
	rec := &recorder{}
	c := NewCoordinator(nil, rec)
	ctx := context.Background()

	if c.Select("A") != nil {
		t.Error("Select before publish should return nil")
	}

	if _, _, err := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Circular}); err != nil {
		t.Fatal(err)
	}
	// Pending selection from before the first publish carries over.
	if got := c.Current().SelectedID; got != "A" {
		t.Errorf("SelectedID = %q, want A", got)
	}

	sel := c.Select("B")
	if sel.SelectedID != "B" || c.Current() != sel {
		t.Errorf("Select(B) did not publish: %q", sel.SelectedID)
	}
	if sel.Seq != 1 {
		t.Errorf("selection changed sequence to %d", sel.Seq)
	}

	// A new layout keeps the selection when the node survives.
	snap, _, _ := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Hierarchical})
	if snap.SelectedID != "B" {
		t.Errorf("SelectedID after relayout = %q, want B", snap.SelectedID)
	}
	if n, _ := snap.Node("B"); !n.Selected {
		t.Error("B not flagged after relayout")
	}

	// And drops it when the node is filtered out.
	snap, _, _ = c.Recompute(ctx, elements, rels, Request{Strategy: layout.Hierarchical, TypeFilter: FilterType("character")})
	if snap.SelectedID != "" {
		t.Errorf("SelectedID after filter = %q, want empty", snap.SelectedID)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seqs) != 4 {
		t.Errorf("observer saw %d snapshots, want 4", len(rec.seqs))
	}
}

func TestCoordinatorSelectIfCurrent(t *testing.T) {
	elements, rels := scenario()
	rec := &recorder{}
	c := NewCoordinator(nil, rec)
	ctx := context.Background()

	if _, ok := c.SelectIfCurrent(1, "A"); ok {
		t.Error("SelectIfCurrent before publish should fail")
	}

	old, _, err := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Circular})
	if err != nil {
		t.Fatal(err)
	}
	newer, _, err := c.Recompute(ctx, elements, rels, Request{Strategy: layout.Hierarchical})
	if err != nil {
		t.Fatal(err)
	}

	if sel, ok := c.SelectIfCurrent(old.Seq, "A"); ok || sel != nil {
		t.Fatalf("SelectIfCurrent(%d) on superseded snapshot = %v, %v", old.Seq, sel, ok)
	}
	if cur := c.Current(); cur != newer || cur.SelectedID != "" {
		t.Errorf("superseded select changed current: seq %d selected %q", cur.Seq, cur.SelectedID)
	}

	sel, ok := c.SelectIfCurrent(newer.Seq, "A")
	if !ok || sel.Seq != newer.Seq || sel.SelectedID != "A" || c.Current() != sel {
		t.Errorf("SelectIfCurrent(%d) = %+v, %v", newer.Seq, sel, ok)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seqs) != 3 {
		t.Errorf("observer saw %d snapshots, want 3", len(rec.seqs))
	}
}

func TestCoordinatorSubscribe(t *testing.T) {
	elements, rels := scenario()
	c := NewCoordinator(nil)

	var got []uint64
	c.Subscribe(ObserverFunc(func(s *Snapshot) { got = append(got, s.Seq) }))

	for range 3 {
		if _, _, err := c.Recompute(context.Background(), elements, rels, Request{Strategy: layout.Circular}); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("observer saw %v, want [1 2 3]", got)
	}
}

func TestPendingWaitCancelled(t *testing.T) {
	p := &Pending{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := p.Wait(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
