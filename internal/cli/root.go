package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The CLI's logger is attached to the command context before any subcommand
// runs and is available through loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Noderelax untangles node graphs with a force-directed layout",
		Long: `Noderelax arranges node graphs (shader trees, compositor graphs, any
left-to-right dataflow) by pulling linked nodes into line and pushing
overlapping nodes apart. Documents are JSON or YAML; results can be
rendered to SVG, PNG, PDF or DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir/noderelax/config.toml)")

	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.brushCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
