package layout

import (
	"math"
	"math/rand/v2"

	"github.com/worldloom/worldloom/pkg/world"
)

// body holds simulation state for one node.
type body struct {
	x, y   float64
	fx, fy float64
}

// spring is a relationship whose endpoints both resolved to bodies.
type spring struct {
	source, target int
	strength       float64
}

// PlaceForceDirected runs a spring-embedder simulation.
//
// Bodies start at uniformly random positions on the canvas. Each of
// opts.Iterations steps resets the force accumulators, applies Coulomb-style
// repulsion between every ordered pair of distinct bodies, applies
// Hooke-style attraction along every resolvable relationship (weighted by its
// raw strength), then moves each body by force·Damping and clamps it to
// [Margin, dimension-Margin] on both axes.
//
// Relationships with an endpoint missing from elements are skipped.
func PlaceForceDirected(elements []world.Element, rels []world.Relationship, counts map[string]int, opts Options) []Node {
	opts = opts.WithDefaults()
	nodes := make([]Node, len(elements))
	if len(elements) == 0 {
		return nodes
	}

	rng := newRand(opts.Seed)
	bodies := make([]body, len(elements))
	for i := range bodies {
		bodies[i].x = rng.Float64() * opts.Width
		bodies[i].y = rng.Float64() * opts.Height
	}
	springs := resolveSprings(elements, rels)

	for range opts.Iterations {
		for i := range bodies {
			bodies[i].fx, bodies[i].fy = 0, 0
		}
		repulse(bodies, opts.Repulsion)
		attract(bodies, springs, opts.Attraction)
		integrate(bodies, opts)
	}

	for i, e := range elements {
		nodes[i] = Node{
			Element:     e,
			X:           bodies[i].x,
			Y:           bodies[i].y,
			Connections: counts[e.ID],
		}
	}
	return nodes
}

// RandomSeed draws a non-zero seed. Passing it as Options.Seed reproduces
// the run.
func RandomSeed() uint64 {
	for {
		if seed := rand.Uint64(); seed != 0 {
			return seed
		}
	}
}

// newRand returns a PCG generator for seed. A zero seed is replaced with a
// fresh random one so unseeded runs differ.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = RandomSeed()
	}
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func resolveSprings(elements []world.Element, rels []world.Relationship) []spring {
	index := indexElements(elements)
	springs := make([]spring, 0, len(rels))
	for _, r := range rels {
		s, ok := index[r.SourceID]
		if !ok {
			continue
		}
		t, ok := index[r.TargetID]
		if !ok {
			continue
		}
		springs = append(springs, spring{source: s, target: t, strength: float64(r.Strength)})
	}
	return springs
}

// repulse pushes every body away from every other body with magnitude
// k/d². Each ordered pair contributes once to its first body.
func repulse(bodies []body, k float64) {
	for i := range bodies {
		a := &bodies[i]
		for j := range bodies {
			if i == j {
				continue
			}
			b := &bodies[j]
			dx, dy := a.x-b.x, a.y-b.y
			dist := distance(dx, dy)
			force := k / (dist * dist)
			a.fx += dx / dist * force
			a.fy += dy / dist * force
		}
	}
}

// attract pulls the endpoints of every spring together with magnitude
// d·k·strength, equal and opposite on the two bodies.
func attract(bodies []body, springs []spring, k float64) {
	for _, s := range springs {
		src, dst := &bodies[s.source], &bodies[s.target]
		dx, dy := dst.x-src.x, dst.y-src.y
		dist := distance(dx, dy)
		force := dist * k * s.strength
		fx, fy := dx/dist*force, dy/dist*force
		src.fx += fx
		src.fy += fy
		dst.fx -= fx
		dst.fy -= fy
	}
}

func integrate(bodies []body, opts Options) {
	for i := range bodies {
		b := &bodies[i]
		b.x = clamp(b.x+b.fx*opts.Damping, opts.Margin, opts.Width-opts.Margin)
		b.y = clamp(b.y+b.fy*opts.Damping, opts.Margin, opts.Height-opts.Margin)
	}
}

// distance is the Euclidean length of (dx, dy), floored at minDistance.
func distance(dx, dy float64) float64 {
	return max(math.Hypot(dx, dy), minDistance)
}

// clamp limits v to [lo, hi]. If the margins overlap (hi < lo) v collapses
// to lo.
func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
