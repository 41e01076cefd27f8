package engine_test

import (
	"context"
	"fmt"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/world"
)

func ExampleRecompute() {
	elements := []world.Element{
		{ID: "A", Type: world.TypeCharacter, Title: "Aria"},
		{ID: "B", Type: world.TypeLocation, Title: "Bastion"},
		{ID: "C", Type: world.TypeCharacter, Title: "Corin"},
	}
	rels := []world.Relationship{
		{ID: "r1", SourceID: "A", TargetID: "B", Strength: 8},
		{ID: "r2", SourceID: "B", TargetID: "C", Strength: 3},
	}

	snap, err := engine.Recompute(context.Background(), elements, rels, engine.Request{Strategy: layout.Hierarchical})
	if err != nil {
		panic(err)
	}
	for _, n := range snap.Select("B").Nodes {
		fmt.Printf("%s (%.0f, %.0f) selected=%v\n", n.ID(), n.X, n.Y, n.Selected)
	}
	// Output:
	// A (250, 40) selected=false
	// C (750, 40) selected=false
	// B (500, 540) selected=true
}
