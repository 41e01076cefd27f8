package cli

import (
	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/pkg/buildinfo"
	"github.com/worldloom/worldloom/pkg/config"

	// World source backends register their DSN schemes.
	_ "github.com/worldloom/worldloom/pkg/source/file"
	_ "github.com/worldloom/worldloom/pkg/source/mongo"
	_ "github.com/worldloom/worldloom/pkg/source/neo4j"
	_ "github.com/worldloom/worldloom/pkg/source/sqlite"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags:
//   - --verbose (-v): debug level logging
//   - --config: TOML config file, applied before WORLDLOOM_* environment variables
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Worldloom lays out worldbuilding graphs",
		Long:         `Worldloom computes circular, force-directed and hierarchical layouts for the elements and relationships of a fictional world.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.Logger.Debug("loaded config", "path", c.configPath, "strategy", cfg.Layout.Strategy, "cache", cfg.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.worldsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
