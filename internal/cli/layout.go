package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/core/layout"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/pipeline"
)

// layoutFlags are the layout parameters shared by layout, watch and inspect.
// Only flags set on the command line override the config.
type layoutFlags struct {
	strategy   string
	typeFilter string
	selectID   string
	labels     bool
	seed       uint64
	width      float64
	height     float64
	iterations int
}

func (f *layoutFlags) register(cmd *cobra.Command, withAll bool) {
	usage := "layout strategy: circular, force (default), hierarchical"
	if withAll {
		usage += ", all"
	}
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", usage)
	cmd.Flags().StringVarP(&f.typeFilter, "type", "t", "", "only lay out elements of this type")
	cmd.Flags().StringVar(&f.selectID, "select", "", "mark the element with this id as selected")
	cmd.Flags().BoolVar(&f.labels, "labels", false, "show labels")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for force-directed layouts (0 = random)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "frame width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "frame height")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "force simulation iterations")
}

func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		opts.Strategy = f.strategy
	}
	if flags.Changed("type") {
		opts.TypeFilter = f.typeFilter
	}
	if flags.Changed("select") {
		opts.Select = f.selectID
	}
	if flags.Changed("labels") {
		opts.ShowLabels = f.labels
	}
	if flags.Changed("seed") {
		opts.Seed = f.seed
	}
	if flags.Changed("width") {
		opts.Width = f.width
	}
	if flags.Changed("height") {
		opts.Height = f.height
	}
	if flags.Changed("iterations") {
		opts.Iterations = f.iterations
	}
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		lf      layoutFlags
		output  string
		src     string
		worldID string
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [world-file]",
		Short: "Compute a layout for a world",
		Long: `Compute a layout for a world.

The world is read from a JSON, TOML or YAML file, or loaded from a source
with --source and --world. Worlds loaded from a source are cached.

With --strategy all, every strategy is computed concurrently and written to
one file per strategy.`,
		Example: `  worldloom layout eldoria.json
  worldloom layout eldoria.yaml -s hierarchical --type character
  worldloom layout --source sqlite://worlds.db --world eldoria -s all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			lf.apply(cmd, &opts)
			if len(args) == 1 {
				opts.WorldFile = args[0]
				opts.Source = ""
			}
			if cmd.Flags().Changed("source") {
				opts.Source = src
			}
			opts.WorldID = worldID
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	lf.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&src, "source", "", "world source DSN (file://, sqlite://, mongodb://, neo4j://)")
	cmd.Flags().StringVarP(&worldID, "world", "w", "", "world id within the source")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the world instead of using the cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout loads the world, computes the layouts, and writes output.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Strategy))
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(opts.WorldFile, res.World.ID, output, opts.Strategies())
	for i, l := range res.Layouts {
		if err := graph.WriteLayoutFile(l, paths[i]); err != nil {
			return fmt.Errorf("write output %s: %w", paths[i], err)
		}
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.ElementCount, res.Stats.RelationshipCount, res.Stats.LayoutTime)
	printNewline()
	printNextStep("Explore", "worldloom inspect "+inspectTarget(opts))

	return nil
}

// outputPaths names one layout file per strategy. A single strategy uses
// output verbatim; several strategies insert the strategy name before the
// extension.
func outputPaths(input, worldID, output string, strategies []layout.Strategy) []string {
	if output == "" {
		base := worldID
		if input != "" {
			base = strings.TrimSuffix(input, filepath.Ext(input))
		}
		output = base + ".layout.json"
	}
	if len(strategies) == 1 {
		return []string{output}
	}

	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	paths := make([]string, len(strategies))
	for i, s := range strategies {
		paths[i] = fmt.Sprintf("%s.%s%s", base, s, ext)
	}
	return paths
}

func inspectTarget(opts pipeline.Options) string {
	if opts.WorldFile != "" {
		return opts.WorldFile
	}
	return fmt.Sprintf("--source %s --world %s", opts.Source, opts.WorldID)
}
