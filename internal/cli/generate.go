package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/source"
	"github.com/worldloom/worldloom/pkg/world"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		opts   world.GenerateOptions
		types  []string
		output string
		dest   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random world",
		Long: `Generate a random world for experiments.

The world is written to a file (-o, format from the extension) or saved into
a writable source (--source).`,
		Example: `  worldloom generate -o sandbox.json
  worldloom generate -n 200 -r 400 --seed 7 -o big.yaml
  worldloom generate --source sqlite://worlds.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range types {
				et, err := world.ParseElementType(t)
				if err != nil {
					return err
				}
				opts.Types = append(opts.Types, et)
			}
			if output == "" && dest == "" {
				output = "world.json"
			}
			return c.runGenerate(cmd.Context(), opts, output, dest)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "world name (default: random)")
	cmd.Flags().IntVarP(&opts.Elements, "elements", "n", 12, "number of elements")
	cmd.Flags().IntVarP(&opts.Relationships, "relationships", "r", 0, "number of relationships (default: 1.5 per element)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "element types to draw from (default: all but custom)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: world.json)")
	cmd.Flags().StringVar(&dest, "source", "", "save into this source DSN instead of a file")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts world.GenerateOptions, output, dest string) error {
	prog := newProgress(c.Logger)
	w := world.Generate(opts)

	if output != "" {
		if err := graph.WriteWorldFile(w, output); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}

	if dest != "" {
		src, err := source.Open(ctx, dest)
		if err != nil {
			return err
		}
		defer src.Close()
		wr, ok := src.(source.Writer)
		if !ok {
			return errors.New(errors.ErrCodeUnsupported, "source %s is read-only", src.Kind())
		}
		if err := wr.Save(ctx, &w); err != nil {
			return fmt.Errorf("save world: %w", err)
		}
	}
	prog.done(fmt.Sprintf("Generated %d elements, %d relationships", len(w.Elements), len(w.Relationships)))

	printSuccess("Generated %s", StyleHighlight.Render(w.Name))
	printKeyValue("id", w.ID)
	if output != "" {
		printFile(output)
	}
	if dest != "" {
		printKeyValue("source", dest)
	}
	printStats(len(w.Elements), len(w.Relationships), 0)
	printNewline()
	if output != "" {
		printNextStep("Lay out", "worldloom layout "+output)
	} else {
		printNextStep("Lay out", fmt.Sprintf("worldloom layout --source %s --world %s", dest, w.ID))
	}
	return nil
}
