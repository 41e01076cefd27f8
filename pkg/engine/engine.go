package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/world"
)

// Request holds the parameters of one recompute.
type Request struct {
	Strategy layout.Strategy
	// TypeFilter restricts the layout to elements of one type. Nil keeps all.
	TypeFilter *world.ElementType
	// ShowLabels is carried through to the snapshot for the presentation
	// layer; the engine does not interpret it.
	ShowLabels bool
	Options    layout.Options
}

// Validate rejects undeclared strategies and unknown filter types.
func (r Request) Validate() error {
	if !r.Strategy.Valid() {
		return errors.New(errors.ErrCodeInvalidStrategy, "unknown layout strategy %d", uint8(r.Strategy))
	}
	if r.TypeFilter != nil && !r.TypeFilter.Valid() {
		return errors.New(errors.ErrCodeInvalidElementType, "unknown element type %q", string(*r.TypeFilter))
	}
	return nil
}

// FilterType returns a pointer to t for use as Request.TypeFilter.
func FilterType(t world.ElementType) *world.ElementType { return &t }

// Snapshot is the immutable result of one recompute. Callers must treat its
// slices as read-only; Select returns a new snapshot instead of mutating.
type Snapshot struct {
	// Seq is the coordinator request sequence. Zero for direct Recompute calls.
	Seq     uint64
	Request Request

	Nodes []layout.Node
	Edges []layout.Edge

	// Relationships are the (filtered) relationships the edges were
	// projected from.
	Relationships []world.Relationship

	// SelectedID is the id of the selected node, or "".
	SelectedID string

	Duration time.Duration
}

// Node returns the node with the given id.
func (s *Snapshot) Node(id string) (layout.Node, bool) {
	for _, n := range s.Nodes {
		if n.ID() == id {
			return n, true
		}
	}
	return layout.Node{}, false
}

// Recompute runs the full pipeline for one request: filter, count, place,
// project. It fails only on an invalid request or a cancelled context;
// dangling relationships and empty inputs produce partial or empty output.
func Recompute(ctx context.Context, elements []world.Element, rels []world.Relationship, req Request) (*Snapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	// Unseeded force runs record the seed they drew so the snapshot can be
	// reproduced.
	if req.Strategy == layout.ForceDirected && req.Options.Seed == 0 {
		req.Options.Seed = layout.RandomSeed()
	}

	if req.TypeFilter != nil {
		elements, rels = FilterByType(elements, rels, *req.TypeFilter)
	}

	counts := layout.BuildConnectionCounts(elements, rels)
	nodes := layout.Place(req.Strategy, elements, rels, counts, req.Options)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recompute %s: %w", req.Strategy, err)
	}

	return &Snapshot{
		Request:       req,
		Nodes:         nodes,
		Edges:         layout.ProjectEdges(nodes, rels),
		Relationships: rels,
		Duration:      time.Since(start),
	}, nil
}

// FilterByType keeps the elements of type t and the relationships whose
// endpoints both survive. The inputs are not modified.
func FilterByType(elements []world.Element, rels []world.Relationship, t world.ElementType) ([]world.Element, []world.Relationship) {
	kept := make([]world.Element, 0, len(elements))
	ids := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		if e.Type == t {
			kept = append(kept, e)
			ids[e.ID] = struct{}{}
		}
	}

	keptRels := make([]world.Relationship, 0, len(rels))
	for _, r := range rels {
		_, src := ids[r.SourceID]
		_, dst := ids[r.TargetID]
		if src && dst {
			keptRels = append(keptRels, r)
		}
	}
	return kept, keptRels
}
