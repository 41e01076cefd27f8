package layout

import (
	"fmt"
	"strings"
)

// Strategy selects a placement algorithm. The set is closed.
type Strategy uint8

const (
	Circular Strategy = iota
	ForceDirected
	Hierarchical
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{Circular, ForceDirected, Hierarchical}

// String returns the canonical name used by the CLI and wire formats.
func (s Strategy) String() string {
	switch s {
	case Circular:
		return "circular"
	case ForceDirected:
		return "force"
	case Hierarchical:
		return "hierarchical"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	return s <= Hierarchical
}

// ParseStrategy converts a name to a Strategy. Matching is case-insensitive
// and accepts "force-directed" and "forcedirected" as aliases of "force".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "circular", "circle":
		return Circular, nil
	case "force", "force-directed", "forcedirected":
		return ForceDirected, nil
	case "hierarchical", "hierarchy":
		return Hierarchical, nil
	}
	return 0, fmt.Errorf("unknown layout strategy %q (must be one of: circular, force, hierarchical)", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid layout strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
