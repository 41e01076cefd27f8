package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/pipeline"
)

// inspectCommand creates the interactive inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		lf      layoutFlags
		src     string
		worldID string
	)

	cmd := &cobra.Command{
		Use:   "inspect [world-file]",
		Short: "Browse a layout and select elements interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			lf.apply(cmd, &opts)
			if len(args) == 1 {
				opts.WorldFile, opts.Source = args[0], ""
			}
			if cmd.Flags().Changed("source") {
				opts.Source = src
			}
			opts.WorldID = worldID
			return c.runInspect(cmd.Context(), opts)
		},
	}

	lf.register(cmd, false)
	cmd.Flags().StringVar(&src, "source", "", "world source DSN")
	cmd.Flags().StringVarP(&worldID, "world", "w", "", "world id within the source")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if opts.IsAll() {
		return errors.New(errors.ErrCodeInvalidStrategy, "inspect shows a single strategy, not %q", opts.Strategy)
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	w, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}

	coord := engine.NewCoordinator(c.Logger)
	if opts.Select != "" {
		coord.Select(opts.Select)
	}
	if _, _, err := coord.Recompute(ctx, w.Elements, w.Relationships, opts.Request(opts.Strategies()[0])); err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	p := tea.NewProgram(NewNodeListModel(coord), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run inspector: %w", err)
	}
	return nil
}
