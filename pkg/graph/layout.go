package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/world"
)

// =============================================================================
// Layout - Computed Layout Document
// =============================================================================

// Layout is the serialization format for a computed layout.
//
// Unlike [engine.Snapshot] it holds no pointers: edges refer to their
// endpoints by node id, so the document can be written to files, returned
// over HTTP and published to Redis as is.
type Layout struct {
	Strategy layout.Strategy `json:"strategy" bson:"strategy"`
	Seq      uint64          `json:"seq,omitempty" bson:"seq,omitempty"`

	// Frame dimensions the positions were computed for.
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Request echo
	TypeFilter world.ElementType `json:"type_filter,omitempty" bson:"type_filter,omitempty"`
	ShowLabels bool              `json:"show_labels" bson:"show_labels"`
	Seed       uint64            `json:"seed,omitempty" bson:"seed,omitempty"`

	SelectedID string `json:"selected_id,omitempty" bson:"selected_id,omitempty"`

	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a positioned element.
type Node struct {
	ID          string            `json:"id" bson:"id"`
	Type        world.ElementType `json:"type" bson:"type"`
	Title       string            `json:"title" bson:"title"`
	X           float64           `json:"x" bson:"x"`
	Y           float64           `json:"y" bson:"y"`
	Connections int               `json:"connections" bson:"connections"`
	Selected    bool              `json:"selected,omitempty" bson:"selected,omitempty"`
	Tags        []string          `json:"tags,omitempty" bson:"tags,omitempty"`
}

// Edge is a relationship between two laid out nodes.
type Edge struct {
	ID            string  `json:"id" bson:"id"`
	Source        string  `json:"source" bson:"source"`
	Target        string  `json:"target" bson:"target"`
	Type          string  `json:"type,omitempty" bson:"type,omitempty"`
	Strength      float64 `json:"strength" bson:"strength"`
	Bidirectional bool    `json:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
}

// FromSnapshot flattens a snapshot into a Layout.
func FromSnapshot(s *engine.Snapshot) Layout {
	opts := s.Request.Options.WithDefaults()
	l := Layout{
		Strategy:   s.Request.Strategy,
		Seq:        s.Seq,
		Width:      opts.Width,
		Height:     opts.Height,
		ShowLabels: s.Request.ShowLabels,
		Seed:       opts.Seed,
		SelectedID: s.SelectedID,
		Nodes:      make([]Node, len(s.Nodes)),
		Edges:      make([]Edge, len(s.Edges)),
	}
	if s.Request.TypeFilter != nil {
		l.TypeFilter = *s.Request.TypeFilter
	}

	for i, n := range s.Nodes {
		l.Nodes[i] = Node{
			ID:          n.ID(),
			Type:        n.Element.Type,
			Title:       n.Element.Title,
			X:           round2(n.X),
			Y:           round2(n.Y),
			Connections: n.Connections,
			Selected:    n.Selected,
			Tags:        n.Element.Tags,
		}
	}
	for i, e := range s.Edges {
		l.Edges[i] = Edge{
			ID:            e.Relationship.ID,
			Source:        e.Source.ID(),
			Target:        e.Target.ID(),
			Type:          e.Relationship.Type,
			Strength:      e.Strength,
			Bidirectional: e.Relationship.Bidirectional,
		}
	}
	return l
}

// Node returns the node with the given id.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every edge must refer to nodes present in the document.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}

	ids := make(map[string]struct{}, len(l.Nodes))
	for _, n := range l.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range l.Edges {
		if _, ok := ids[e.Source]; !ok {
			return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "edge %q: unknown source %q", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "edge %q: unknown target %q", e.ID, e.Target)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
