// Package graph provides serialization for worlds and computed layouts.
//
// This package defines the file and wire formats worldloom reads and writes:
// world files loaded by the CLI and the file source, and the layout documents
// produced by the CLI, returned by the HTTP server and published to Redis.
//
// # Architecture
//
// The package sits at the serialization boundary between the engine's
// in-memory types and external formats:
//
//   - [world.World]: Input document (this package reads and writes it)
//   - [engine.Snapshot]: Computed layout with node pointers
//   - [Layout]: Flat, pointer-free wire form of a snapshot
//
// Use [FromSnapshot] to convert a snapshot for output.
//
// # World Files
//
// JSON is the canonical format; TOML and YAML are accepted and chosen by
// file extension:
//
//	{
//	  "id": "eldoria",
//	  "elements": [{"id": "a", "type": "character", "title": "Aria"}],
//	  "relationships": [{"id": "r1", "source_id": "a", "target_id": "b", "strength": 8}]
//	}
//
// Common operations:
//
//	w, _ := graph.ReadWorldFile("eldoria.toml")        // File → World
//	graph.WriteWorldFile(w, "eldoria.json")            // World → File
//	data, _ := graph.MarshalWorld(w, graph.FormatYAML) // World → []byte
//
// Every read validates the world; see [world.World.Validate].
//
// # Layout Documents
//
//	snap, _ := engine.Recompute(ctx, w.Elements, w.Relationships, req)
//	data, _ := graph.MarshalLayout(graph.FromSnapshot(snap))
//
// Edges in a layout refer to nodes by id. Coordinates are rounded to two
// decimals so output is stable across platforms.
//
// # Concurrency
//
// All functions are safe for concurrent use.
package graph
