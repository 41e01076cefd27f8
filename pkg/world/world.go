package world

import (
	"encoding"
	"strings"

	"github.com/worldloom/worldloom/pkg/errors"
)

// ElementType is the type tag of an element.
type ElementType string

// Known element types.
const (
	TypeCharacter    ElementType = "character"
	TypeLocation     ElementType = "location"
	TypeEvent        ElementType = "event"
	TypeCulture      ElementType = "culture"
	TypeLanguage     ElementType = "language"
	TypeTimeline     ElementType = "timeline"
	TypePlot         ElementType = "plot"
	TypeOrganization ElementType = "organization"
	TypeItem         ElementType = "item"
	TypeConcept      ElementType = "concept"
	TypeCustom       ElementType = "custom"
)

// ElementTypes lists every known element type in declaration order.
var ElementTypes = []ElementType{
	TypeCharacter,
	TypeLocation,
	TypeEvent,
	TypeCulture,
	TypeLanguage,
	TypeTimeline,
	TypePlot,
	TypeOrganization,
	TypeItem,
	TypeConcept,
	TypeCustom,
}

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	for _, k := range ElementTypes {
		if t == k {
			return true
		}
	}
	return false
}

func (t ElementType) String() string { return string(t) }

// UnmarshalText accepts any casing and surrounding whitespace.
func (t *ElementType) UnmarshalText(b []byte) error {
	parsed, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t ElementType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

var (
	_ encoding.TextMarshaler   = ElementType("")
	_ encoding.TextUnmarshaler = (*ElementType)(nil)
)

// ParseElementType converts s to an ElementType.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidElementType, "unknown element type %q", s)
	}
	return t, nil
}

// Element is a user-authored entity within a world.
type Element struct {
	ID      string         `json:"id" toml:"id" yaml:"id" bson:"id" validate:"required"`
	Type    ElementType    `json:"type" toml:"type" yaml:"type" bson:"type" validate:"required,element_type"`
	Title   string         `json:"title" toml:"title" yaml:"title" bson:"title" validate:"required"`
	Content map[string]any `json:"content,omitempty" toml:"content,omitempty" yaml:"content,omitempty" bson:"content,omitempty"`
	Tags    []string       `json:"tags,omitempty" toml:"tags,omitempty" yaml:"tags,omitempty" bson:"tags,omitempty"`
}

// Relationship is a typed, weighted connection between two elements.
// Bidirectional affects rendering only; degree counting ignores it.
type Relationship struct {
	ID            string `json:"id" toml:"id" yaml:"id" bson:"id" validate:"required"`
	SourceID      string `json:"source_id" toml:"source_id" yaml:"source_id" bson:"source_id" validate:"required"`
	TargetID      string `json:"target_id" toml:"target_id" yaml:"target_id" bson:"target_id" validate:"required"`
	Type          string `json:"type" toml:"type" yaml:"type" bson:"type"`
	Strength      int    `json:"strength" toml:"strength" yaml:"strength" bson:"strength" validate:"min=1,max=10"`
	Description   string `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Bidirectional bool   `json:"bidirectional,omitempty" toml:"bidirectional,omitempty" yaml:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
}

// World groups the elements and relationships of one fictional world.
type World struct {
	ID            string         `json:"id" toml:"id" yaml:"id" bson:"_id" validate:"required"`
	Name          string         `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Elements      []Element      `json:"elements" toml:"elements" yaml:"elements" bson:"elements" validate:"dive"`
	Relationships []Relationship `json:"relationships" toml:"relationships" yaml:"relationships" bson:"relationships" validate:"dive"`
}

// Element returns the first element with the given id.
func (w *World) Element(id string) (Element, bool) {
	for _, e := range w.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// RelationshipsOf returns the relationships touching the element id, in input order.
func (w *World) RelationshipsOf(id string) []Relationship {
	var out []Relationship
	for _, r := range w.Relationships {
		if r.SourceID == id || r.TargetID == id {
			out = append(out, r)
		}
	}
	return out
}
