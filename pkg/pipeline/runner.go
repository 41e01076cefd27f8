package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/observability"
	"github.com/worldloom/worldloom/pkg/source"
	"github.com/worldloom/worldloom/pkg/source/file"
	"github.com/worldloom/worldloom/pkg/world"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating load and layout logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides source.DefaultTTL for cached worlds when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	w, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.World = w
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ElementCount = len(w.Elements)
	result.Stats.RelationshipCount = len(w.Relationships)

	r.Logger.Info("loaded world",
		"world", w.ID,
		"elements", len(w.Elements),
		"relationships", len(w.Relationships),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	snaps, err := r.LayoutAll(ctx, w, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshots = snaps
	result.Stats.LayoutTime = time.Since(layoutStart)
	for _, s := range snaps {
		result.Layouts = append(result.Layouts, graph.FromSnapshot(s))
	}

	r.Logger.Info("computed layouts",
		"strategies", len(snaps),
		"duration", result.Stats.LayoutTime)

	return result, nil
}

// Load reads the world named by opts. World files are read directly; worlds
// from a source DSN go through the runner's cache.
func (r *Runner) Load(ctx context.Context, opts Options) (*world.World, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	if opts.WorldFile != "" {
		src, err := file.Open(opts.WorldFile)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return source.Instrumented(src).Load(ctx, "")
	}

	backend, err := source.Open(ctx, opts.Source)
	if err != nil {
		return nil, err
	}
	src := source.Cached(source.Instrumented(backend), opts.Source, r.Cache, r.Keyer, r.Logger)
	defer src.Close()
	if r.TTL > 0 {
		src.TTL = r.TTL
	}

	if opts.Refresh {
		if err := src.Invalidate(ctx, opts.WorldID); err != nil {
			r.Logger.Warn("cache invalidate failed", "world", opts.WorldID, "err", err)
		}
	}
	return src.Load(ctx, opts.WorldID)
}

// Layout computes one strategy for w and applies opts.Select.
func (r *Runner) Layout(ctx context.Context, w *world.World, opts Options, req engine.Request) (*engine.Snapshot, error) {
	strategy := req.Strategy.String()
	observability.Layout().OnLayoutStart(ctx, strategy, len(w.Elements))

	snap, err := engine.Recompute(ctx, w.Elements, w.Relationships, req)
	if err != nil {
		observability.Layout().OnLayoutComplete(ctx, strategy, 0, 0, 0, err)
		return nil, err
	}
	observability.Layout().OnLayoutComplete(ctx, strategy, len(snap.Nodes), len(snap.Edges), snap.Duration, nil)

	if opts.Select != "" {
		snap = snap.Select(opts.Select)
		if snap.SelectedID == "" {
			r.Logger.Warn("selected element not in layout", "id", opts.Select, "strategy", strategy)
		}
	}

	r.Logger.Debug("computed layout",
		"strategy", strategy,
		"nodes", len(snap.Nodes),
		"edges", len(snap.Edges),
		"duration", snap.Duration)
	return snap, nil
}

// LayoutAll computes every requested strategy concurrently. Results are in
// strategy declaration order; the first failure cancels the rest.
func (r *Runner) LayoutAll(ctx context.Context, w *world.World, opts Options) ([]*engine.Snapshot, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	strategies := opts.Strategies()
	snaps := make([]*engine.Snapshot, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			snap, err := r.Layout(gctx, w, opts, opts.Request(s))
			if err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
