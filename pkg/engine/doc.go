// Package engine orchestrates layout computation for a world.
//
// [Recompute] is the single entry point: it filters the input by element
// type, counts connections, dispatches to one placement strategy from
// pkg/core/layout and projects edges onto the placed nodes. The result is an
// immutable [Snapshot]; nothing is patched incrementally.
//
// # Selection
//
// [Snapshot.Select] and [SelectNodes] recompute the per-node selected flag
// as a pure projection. They never trigger a relayout and never touch the
// domain elements.
//
// # Coordinator
//
// [Coordinator] is the state container for interactive use. Recomputes run
// on their own goroutines and are stamped with a request sequence number; a
// finished snapshot is published only if no later request has been
// published already, so the newest request wins regardless of which
// computation finishes first. Readers get the published snapshot through an
// atomic pointer and never observe a layout in progress.
package engine
