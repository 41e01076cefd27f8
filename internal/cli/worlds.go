package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/source"
)

// worldsCommand creates the worlds command, which lists the worlds in a source.
func (c *CLI) worldsCommand() *cobra.Command {
	var src string

	cmd := &cobra.Command{
		Use:   "worlds",
		Short: "List the worlds in a source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("source") {
				src = c.Config.Source
			}
			if src == "" {
				return errors.New(errors.ErrCodeInvalidInput, "no source: pass --source or set WORLDLOOM_SOURCE")
			}

			s, err := source.Open(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list worlds: %w", err)
			}
			if len(ids) == 0 {
				printInfo("No worlds in %s", src)
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			printDetail("%d worlds in %s source", len(ids), s.Kind())
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "source", "", "world source DSN")
	return cmd
}
