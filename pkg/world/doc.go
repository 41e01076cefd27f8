// Package world defines the domain types the layout engine reads: elements,
// relationships and the worlds that group them.
//
// These types are owned by the surrounding application. The engine in
// pkg/core/layout and pkg/engine only ever reads them; every derived value
// (positions, degrees, selection flags) lives on engine-side types.
//
// # Element Types
//
// Elements carry one of a fixed set of type tags:
//
//	character, location, event, culture, language, timeline,
//	plot, organization, item, concept, custom
//
// Use [ParseElementType] to convert user input and [ElementType.Valid] to
// check values that came from storage.
//
// # Validation
//
// [World.Validate] checks struct-level constraints (non-empty ids, known
// types, strength in [1,10]) plus element id uniqueness. Validation belongs at
// the import boundary; the engine itself tolerates dangling relationship
// endpoints.
package world
