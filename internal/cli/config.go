package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/pkg/pipeline"
)

// configCommand creates the config command. Without a subcommand it prints
// the effective configuration as TOML, ready to be saved as a config file.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Example: `  noderelax config > "$(noderelax config path)"
  noderelax --config tidy.toml config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			return pipeline.WriteConfig(cmd.OutOrStdout(), opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pipeline.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}
