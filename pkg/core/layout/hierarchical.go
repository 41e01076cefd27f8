package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/worldloom/worldloom/pkg/world"
)

// Group is the set of elements sharing one type, in band order.
type Group struct {
	Type     world.ElementType
	Elements []world.Element
}

// GroupByType buckets elements by type. Groups are ordered by the first
// appearance of their type in elements; members keep their input order.
func GroupByType(elements []world.Element) []Group {
	var groups []Group
	index := make(map[world.ElementType]int)
	for _, e := range elements {
		i, ok := index[e.Type]
		if !ok {
			i = len(groups)
			index[e.Type] = i
			groups = append(groups, Group{Type: e.Type})
		}
		groups[i].Elements = append(groups[i].Elements, e)
	}
	return groups
}

// PlaceHierarchical lays out one horizontal band per element type.
//
// The canvas height is split evenly between the groups returned by
// [GroupByType]. Within a band the group is stably sorted by descending
// connection count and wrapped into a grid of ceil(sqrt(size)) columns.
// Each column gets an equal share of the canvas width and nodes sit at the
// column center. Grid rows advance by RowHeight, shrunk when needed so the
// whole group stays inside its band.
//
// Nodes are returned in band order, each band in its sorted order.
func PlaceHierarchical(elements []world.Element, counts map[string]int, opts Options) []Node {
	opts = opts.WithDefaults()
	nodes := make([]Node, 0, len(elements))
	groups := GroupByType(elements)
	if len(groups) == 0 {
		return nodes
	}

	band := opts.Height / float64(len(groups))
	for g, group := range groups {
		members := slices.Clone(group.Elements)
		slices.SortStableFunc(members, func(a, b world.Element) int {
			return cmp.Compare(counts[b.ID], counts[a.ID])
		})

		cols := max(1, int(math.Ceil(math.Sqrt(float64(len(members))))))
		rows := (len(members) + cols - 1) / cols
		colWidth := opts.Width / float64(cols)
		// Tall groups compress their rows to stay inside the band.
		rowStep := min(opts.RowHeight, band/float64(rows))
		top := float64(g) * band

		for i, e := range members {
			col, row := i%cols, i/cols
			nodes = append(nodes, Node{
				Element:     e,
				X:           colWidth * (float64(col) + 0.5),
				Y:           top + rowStep*(float64(row)+0.5),
				Connections: counts[e.ID],
			})
		}
	}
	return nodes
}
