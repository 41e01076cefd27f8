package layout

import (
	"github.com/worldloom/worldloom/pkg/world"
)

// Node is the positioned representation of one element. Nodes are created
// fresh by every placement and never outlive the layout that made them.
type Node struct {
	Element     world.Element
	X, Y        float64
	Connections int
	Selected    bool
}

// ID returns the id of the wrapped element.
func (n *Node) ID() string { return n.Element.ID }

// Edge is the positioned representation of one relationship. Source and
// Target point into the node slice the edge was projected from.
type Edge struct {
	Relationship world.Relationship
	Source       *Node
	Target       *Node
	// Strength is Relationship.Strength rescaled to [0, 1].
	Strength float64
}

// ConnectionCounts returns the degree of every id touched by rels. Each
// relationship adds one to its source and one to its target whatever its
// direction flag; a self-loop adds two. Ids with no matching element are
// counted too.
func ConnectionCounts(rels []world.Relationship) map[string]int {
	counts := make(map[string]int, len(rels))
	for _, r := range rels {
		counts[r.SourceID]++
		counts[r.TargetID]++
	}
	return counts
}

// BuildConnectionCounts is ConnectionCounts with the element set the counts
// are meant for. Elements are not consulted; counts for unknown ids are kept
// and dropped later when nodes are built.
func BuildConnectionCounts(_ []world.Element, rels []world.Relationship) map[string]int {
	return ConnectionCounts(rels)
}

// NormalizedStrength rescales a 1-10 strength to [0, 1].
func NormalizedStrength(strength int) float64 {
	return min(max(float64(strength)/10, 0), 1)
}

// ProjectEdges pairs nodes by relationship. A relationship is kept only if
// both of its endpoints resolve to a node; when several nodes share an id
// the first one wins. The returned edges point into nodes.
func ProjectEdges(nodes []Node, rels []world.Relationship) []Edge {
	index := indexNodes(nodes)
	edges := make([]Edge, 0, len(rels))
	for _, r := range rels {
		si, ok := index[r.SourceID]
		if !ok {
			continue
		}
		ti, ok := index[r.TargetID]
		if !ok {
			continue
		}
		edges = append(edges, Edge{
			Relationship: r,
			Source:       &nodes[si],
			Target:       &nodes[ti],
			Strength:     NormalizedStrength(r.Strength),
		})
	}
	return edges
}

func indexNodes(nodes []Node) map[string]int {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		if _, dup := index[nodes[i].ID()]; !dup {
			index[nodes[i].ID()] = i
		}
	}
	return index
}

func indexElements(elements []world.Element) map[string]int {
	index := make(map[string]int, len(elements))
	for i, e := range elements {
		if _, dup := index[e.ID]; !dup {
			index[e.ID] = i
		}
	}
	return index
}
