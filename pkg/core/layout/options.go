package layout

// Default layout constants.
const (
	DefaultWidth      = 1000.0
	DefaultHeight     = 1000.0
	DefaultRadius     = 300.0
	DefaultCenterX    = 500.0
	DefaultCenterY    = 500.0
	DefaultIterations = 50
	DefaultRepulsion  = 10000.0
	DefaultAttraction = 0.01
	DefaultDamping    = 0.1
	DefaultMargin     = 50.0
	DefaultRowHeight  = 80.0

	// minDistance floors pairwise distances in the force simulation.
	minDistance = 1.0
)

// Options holds the geometry and physics constants shared by all strategies.
// Zero fields take the package defaults, so the zero value is usable.
type Options struct {
	// Width and Height define the canvas. Force-directed initial positions
	// and clamping, and hierarchical bands, are computed against it.
	Width  float64 `json:"width,omitempty" toml:"width"`
	Height float64 `json:"height,omitempty" toml:"height"`

	// Circle geometry.
	Radius  float64 `json:"radius,omitempty" toml:"radius"`
	CenterX float64 `json:"center_x,omitempty" toml:"center_x"`
	CenterY float64 `json:"center_y,omitempty" toml:"center_y"`

	// Force simulation.
	Iterations int     `json:"iterations,omitempty" toml:"iterations"`
	Repulsion  float64 `json:"repulsion,omitempty" toml:"repulsion"`
	Attraction float64 `json:"attraction,omitempty" toml:"attraction"`
	Damping    float64 `json:"damping,omitempty" toml:"damping"`
	Margin     float64 `json:"margin,omitempty" toml:"margin"`

	// RowHeight is the vertical step between grid rows of a hierarchical group.
	RowHeight float64 `json:"row_height,omitempty" toml:"row_height"`

	// Seed pins the force simulation's initial positions. Zero draws a fresh
	// random seed on every run.
	Seed uint64 `json:"seed,omitempty" toml:"seed"`
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.CenterX == 0 && o.CenterY == 0 {
		o.CenterX, o.CenterY = DefaultCenterX, DefaultCenterY
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.Repulsion <= 0 {
		o.Repulsion = DefaultRepulsion
	}
	if o.Attraction <= 0 {
		o.Attraction = DefaultAttraction
	}
	if o.Damping <= 0 {
		o.Damping = DefaultDamping
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	return o
}
