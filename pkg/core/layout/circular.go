package layout

import (
	"math"

	"github.com/worldloom/worldloom/pkg/world"
)

// PlaceCircular spaces elements evenly on a circle of opts.Radius around
// (opts.CenterX, opts.CenterY), starting at angle 0 and proceeding in input
// order. A single element sits at center + (Radius, 0).
func PlaceCircular(elements []world.Element, counts map[string]int, opts Options) []Node {
	opts = opts.WithDefaults()
	nodes := make([]Node, len(elements))
	if len(elements) == 0 {
		return nodes
	}

	step := 2 * math.Pi / float64(len(elements))
	for i, e := range elements {
		angle := float64(i) * step
		nodes[i] = Node{
			Element:     e,
			X:           opts.CenterX + opts.Radius*math.Cos(angle),
			Y:           opts.CenterY + opts.Radius*math.Sin(angle),
			Connections: counts[e.ID],
		}
	}
	return nodes
}
