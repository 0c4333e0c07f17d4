package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/pipeline"
)

// brushFlags holds the command-line flags for the brush command.
type brushFlags struct {
	output string
	size   float64
}

// brushCommand creates the interactive brush command.
func (c *CLI) brushCommand() *cobra.Command {
	var flags brushFlags

	cmd := &cobra.Command{
		Use:   "brush [file]",
		Short: "Relax a document interactively in the terminal",
		Long: `Brush opens the document in a full-screen view. Hold the left mouse
button and move to relax every node under the brush; nodes near the
center move most. Hold shift (or toggle with d) to pick the nearest node
and drag it instead.

Press a to run the batch arrange in the background, esc to cancel it,
w to write the document and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("size") {
				opts.Brush.BrushSize = flags.size
			}
			if err := opts.Brush.Validate(); err != nil {
				return err
			}
			return c.runBrush(cmd.Context(), args[0], opts, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "where w writes (default: overwrite the input)")
	cmd.Flags().Float64Var(&flags.size, "size", 0, "initial brush size in pixels")

	return cmd
}

func (c *CLI) runBrush(ctx context.Context, input string, opts pipeline.Options, flags *brushFlags) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	output := flags.output
	if output == "" {
		output = input
	}

	model := newBrushModel(g, opts.Brush, opts.Arrange, output)
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("brush: %w", err)
	}

	if model.dirty {
		printWarning("Quit with unsaved changes to %s", output)
	}
	return nil
}
