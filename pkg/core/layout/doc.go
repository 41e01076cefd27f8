// Package layout computes 2D positions for the elements of a world so its
// relationship graph can be drawn as a node-link diagram.
//
// # Strategies
//
// Three placement algorithms are available, selected with [Strategy]:
//
//   - [Circular]: elements evenly spaced on a fixed circle, in input order.
//   - [ForceDirected]: a spring-embedder simulation (repulsion between every
//     pair of nodes, attraction along relationships) run for a fixed number
//     of iterations and clamped to the canvas.
//   - [Hierarchical]: one horizontal band per element type, each band laid
//     out as a near-square grid ordered by connection count. Rows are
//     [Options.RowHeight] apart unless a group has more rows than fit in
//     its band, in which case the step shrinks to band height / rows so
//     the group never spills into the next band.
//
// [Place] dispatches to exactly one of them. Every strategy returns one
// [Node] per input element and never fails: relationships whose endpoints
// are missing are ignored and an empty input yields an empty result.
//
// # Model
//
// [ConnectionCounts] aggregates degrees (one per relationship endpoint,
// regardless of direction). [ProjectEdges] pairs positioned nodes by
// relationship and silently drops relationships that do not resolve.
//
// # Determinism
//
// Circular and hierarchical placement are deterministic. The force-directed
// simulation starts from random positions; set [Options.Seed] to a non-zero
// value to make a run reproducible.
//
// # Complexity
//
// Force-directed placement is O(n²·iterations). It targets worlds of tens
// to a few hundred elements; there is no spatial partitioning.
package layout
