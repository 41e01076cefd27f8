package layout

import (
	"fmt"

	"github.com/worldloom/worldloom/pkg/world"
)

// Place runs the placement algorithm selected by s.
//
// Place panics if s is not one of the declared strategies; validate
// untrusted input with [ParseStrategy] or [Strategy.Valid] first.
func Place(s Strategy, elements []world.Element, rels []world.Relationship, counts map[string]int, opts Options) []Node {
	switch s {
	case Circular:
		return PlaceCircular(elements, counts, opts)
	case ForceDirected:
		return PlaceForceDirected(elements, rels, counts, opts)
	case Hierarchical:
		return PlaceHierarchical(elements, counts, opts)
	default:
		panic(fmt.Sprintf("layout: unknown strategy %d", uint8(s)))
	}
}
