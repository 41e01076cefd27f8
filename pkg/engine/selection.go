package engine

import (
	"slices"

	"github.com/worldloom/worldloom/pkg/core/layout"
)

// SelectNodes returns a copy of nodes with Selected set exactly on the nodes
// whose id equals id. An empty id clears every flag.
func SelectNodes(nodes []layout.Node, id string) []layout.Node {
	out := slices.Clone(nodes)
	for i := range out {
		out[i].Selected = id != "" && out[i].ID() == id
	}
	return out
}

// Select returns a new snapshot with the selection moved to id. Edges are
// re-projected onto the copied nodes so they observe the new flags. The
// receiver is left untouched.
func (s *Snapshot) Select(id string) *Snapshot {
	next := *s
	next.Nodes = SelectNodes(s.Nodes, id)
	next.Edges = layout.ProjectEdges(next.Nodes, s.Relationships)
	next.SelectedID = ""
	if _, ok := next.Node(id); ok {
		next.SelectedID = id
	}
	return &next
}
