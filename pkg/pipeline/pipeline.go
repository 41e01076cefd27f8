// Package pipeline provides the load → layout pipeline shared by the CLI and
// the HTTP server.
//
// This package centralizes how a world is obtained (a world file or a source
// DSN, with caching of remote loads) and how one or several layout strategies
// are computed for it, so every entry point behaves the same way.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Load: Read a world file, or open a source and load a world by id
//  2. Layout: Run one strategy, or every strategy concurrently ("all")
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    WorldFile: "eldoria.json",
//	    Strategy:  "hierarchical",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layout := result.Layouts[0]
//
// Run individual stages:
//
//	// Load only
//	w, err := runner.Load(ctx, opts)
//
//	// Layout an already loaded world
//	snaps, err := runner.LayoutAll(ctx, w, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/world"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultStrategy is the strategy used when none is requested.
	DefaultStrategy = "force"

	// StrategyAll requests every strategy in one run.
	StrategyAll = "all"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of WorldFile and Source is set.
	WorldFile string `json:"world_file,omitempty"`
	Source    string `json:"source,omitempty"`   // Source DSN
	WorldID   string `json:"world_id,omitempty"` // World to load from Source
	Refresh   bool   `json:"refresh,omitempty"`  // Drop the cached copy before loading

	// Layout options
	Strategy   string  `json:"strategy,omitempty"`    // Strategy name or "all"
	TypeFilter string  `json:"type_filter,omitempty"` // Element type to keep
	ShowLabels bool    `json:"show_labels,omitempty"`
	Select     string  `json:"select,omitempty"` // Element id to mark selected
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Iterations int     `json:"iterations,omitempty"`
	Seed       uint64  `json:"seed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// World is the loaded world.
	World *world.World

	// Snapshots holds one engine snapshot per requested strategy, in
	// strategy declaration order.
	Snapshots []*engine.Snapshot

	// Layouts are the serialized forms of Snapshots, index for index.
	Layouts []graph.Layout

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ElementCount      int
	RelationshipCount int
	LoadTime          time.Duration
	LayoutTime        time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateStrategy checks that name is a strategy or "all".
func ValidateStrategy(name string) error {
	if name == StrategyAll {
		return nil
	}
	if _, err := layout.ParseStrategy(name); err != nil {
		return errors.New(errors.ErrCodeInvalidStrategy,
			"invalid strategy: %q (must be one of: circular, force, hierarchical, all)", name)
	}
	return nil
}

// ValidateTypeFilter checks that name is empty or a known element type.
func ValidateTypeFilter(name string) error {
	if name == "" {
		return nil
	}
	_, err := world.ParseElementType(name)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the load fields.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.WorldFile == "" && o.Source == "":
		return errors.New(errors.ErrCodeInvalidInput, "world file or source is required")
	case o.WorldFile != "" && o.Source != "":
		return errors.New(errors.ErrCodeInvalidInput, "world file and source are mutually exclusive")
	case o.WorldFile != "":
		if err := errors.ValidateWorldFilename(o.WorldFile); err != nil {
			return err
		}
	case o.WorldID == "":
		return errors.New(errors.ErrCodeInvalidInput, "world id is required with a source")
	default:
		if err := errors.ValidateWorldID(o.WorldID); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if err := ValidateTypeFilter(o.TypeFilter); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must not be negative")
	}
	if o.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must not be negative")
	}
	return nil
}

// IsAll returns true if every strategy is requested.
func (o *Options) IsAll() bool {
	return o.Strategy == StrategyAll
}

// Strategies returns the requested strategies in declaration order.
// Call after ValidateForLayout.
func (o *Options) Strategies() []layout.Strategy {
	if o.IsAll() {
		return slices.Clone(layout.Strategies)
	}
	s, err := layout.ParseStrategy(o.Strategy)
	if err != nil {
		return nil
	}
	return []layout.Strategy{s}
}

// Request builds the engine request for strategy s.
func (o *Options) Request(s layout.Strategy) engine.Request {
	req := engine.Request{
		Strategy:   s,
		ShowLabels: o.ShowLabels,
		Options: layout.Options{
			Width:      o.Width,
			Height:     o.Height,
			Iterations: o.Iterations,
			Seed:       o.Seed,
		},
	}
	if t, err := world.ParseElementType(o.TypeFilter); err == nil {
		req.TypeFilter = engine.FilterType(t)
	}
	// A custom frame keeps the circle centred in it.
	if o.Width > 0 || o.Height > 0 {
		frame := req.Options.WithDefaults()
		req.Options.CenterX, req.Options.CenterY = frame.Width/2, frame.Height/2
	}
	return req
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
