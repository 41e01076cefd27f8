package world

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenerateOptions controls Generate. Zero fields take defaults.
type GenerateOptions struct {
	Name          string
	Elements      int
	Relationships int
	// Types restricts element types. Defaults to every type except custom.
	Types []ElementType
	// Seed makes the output reproducible. Zero draws a random seed.
	Seed uint64
}

var (
	titleAdjectives = []string{"Ashen", "Gilded", "Hollow", "Iron", "Silent", "Sunken", "Verdant", "Wandering"}
	titleNouns      = []string{"Crown", "Harbor", "Oath", "Spire", "Tide", "Vale", "Warden", "Whisper"}
	relationTypes   = []string{"allied_with", "rivals", "located_in", "part_of", "owns", "remembers"}
)

// Generate builds a random, valid world with uuid identifiers.
func Generate(opts GenerateOptions) World {
	if opts.Elements <= 0 {
		opts.Elements = 12
	}
	if opts.Relationships < 0 {
		opts.Relationships = 0
	} else if opts.Relationships == 0 {
		opts.Relationships = opts.Elements * 3 / 2
	}
	if maxRels := opts.Elements * (opts.Elements - 1); opts.Relationships > maxRels {
		opts.Relationships = maxRels
	}
	if len(opts.Types) == 0 {
		opts.Types = ElementTypes[:len(ElementTypes)-1]
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], opts.Seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)
	newID := func() string {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			panic(fmt.Sprintf("world: uuid from chacha8: %v", err))
		}
		return id.String()
	}

	w := World{ID: newID(), Name: opts.Name}
	if w.Name == "" {
		w.Name = pick(rng, titleAdjectives) + " " + pick(rng, titleNouns)
	}

	for i := range opts.Elements {
		w.Elements = append(w.Elements, Element{
			ID:    newID(),
			Type:  opts.Types[rng.IntN(len(opts.Types))],
			Title: fmt.Sprintf("%s %s %d", pick(rng, titleAdjectives), pick(rng, titleNouns), i+1),
		})
	}

	seen := make(map[[2]int]bool, opts.Relationships)
	for len(w.Relationships) < opts.Relationships {
		a, b := rng.IntN(opts.Elements), rng.IntN(opts.Elements)
		if a == b || seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		w.Relationships = append(w.Relationships, Relationship{
			ID:            newID(),
			SourceID:      w.Elements[a].ID,
			TargetID:      w.Elements[b].ID,
			Type:          pick(rng, relationTypes),
			Strength:      1 + rng.IntN(10),
			Bidirectional: rng.IntN(4) == 0,
		})
	}
	return w
}

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}
