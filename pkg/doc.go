// Package pkg provides the core libraries for worldloom graph layouts.
//
// # Overview
//
// Worldloom positions the elements of a fictional world (characters,
// locations, events, ...) and the relationships between them on a 2D canvas.
// The pkg directory is organized into these areas:
//
//  1. [world] - Domain types: elements, relationships, worlds, validation
//  2. [core/layout] - Placement strategies (circular, force, hierarchical)
//  3. [engine] - Recompute pipeline, selection and the snapshot coordinator
//  4. [graph] - World file and layout serialization
//  5. [source] - World backends (files, SQLite, MongoDB, Neo4j) with caching
//  6. [pipeline] - Orchestration (load → layout)
//
// # Architecture
//
// The typical data flow through worldloom:
//
//	World file / database
//	         ↓
//	    [source] package (load, cache)
//	         ↓
//	    [engine] package (filter, count, place, project)
//	         ↓
//	    [graph] package (layout document)
//	         ↓
//	    JSON file / HTTP response / Redis channel
//
// # Quick Start
//
//	w, _ := graph.ReadWorldFile("eldoria.json")
//	snap, _ := engine.Recompute(ctx, w.Elements, w.Relationships, engine.Request{
//	    Strategy: layout.Hierarchical,
//	})
//	snap = snap.Select("aria")
//	_ = graph.WriteLayoutFile(graph.FromSnapshot(snap), "eldoria.layout.json")
//
// # Main Packages
//
// Domain:
//   - [world]: Element, Relationship and World types
//   - [core/layout]: Strategy enum and the three placement algorithms
//   - [engine]: Recompute, FilterByType, Snapshot.Select, Coordinator
//
// Infrastructure:
//   - [cache]: Byte cache with null, file and Redis backends
//   - [source]: DSN registry and backends
//   - [config]: TOML, .env and environment configuration
//   - [observability]: Hooks with a Prometheus implementation
//   - [publish]: Redis snapshot publisher
//   - [errors]: Structured error codes
//   - [buildinfo]: Version information
//
// [world]: github.com/worldloom/worldloom/pkg/world
// [core/layout]: github.com/worldloom/worldloom/pkg/core/layout
// [engine]: github.com/worldloom/worldloom/pkg/engine
// [graph]: github.com/worldloom/worldloom/pkg/graph
// [source]: github.com/worldloom/worldloom/pkg/source
// [pipeline]: github.com/worldloom/worldloom/pkg/pipeline
// [cache]: github.com/worldloom/worldloom/pkg/cache
// [config]: github.com/worldloom/worldloom/pkg/config
// [observability]: github.com/worldloom/worldloom/pkg/observability
// [publish]: github.com/worldloom/worldloom/pkg/publish
// [errors]: github.com/worldloom/worldloom/pkg/errors
// [buildinfo]: github.com/worldloom/worldloom/pkg/buildinfo
package pkg
