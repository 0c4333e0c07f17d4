package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output     string // output file (single format) or base path (multiple)
	formats    string
	portLabels bool
	hideFrames bool
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command. Documents are drawn where
// they are; run arrange first to tidy them.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a node graph document to SVG, PNG, PDF or DOT",
		Example: `  noderelax render shader.arranged.json
  noderelax render shader.json -f svg,png -o out/shader
  noderelax render shader.json -f dot --port-labels`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				opts.Render.Formats = parseFormats(flags.formats)
			}
			if cmd.Flags().Changed("port-labels") {
				opts.Render.PortLabels = flags.portLabels
			}
			if cmd.Flags().Changed("hide-frames") {
				opts.Render.HideFrames = flags.hideFrames
			}
			opts.Refresh = flags.refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&flags.portLabels, "port-labels", false, "label links with their port names")
	cmd.Flags().BoolVar(&flags.hideFrames, "hide-frames", false, "do not draw frames")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, flags *renderFlags) error {
	logger := loggerFromContext(ctx)
	logger.Debugf("Rendering %s as %v", input, opts.Render.Formats)

	doc, err := graph.ReadFile(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+input)
	spinner.Start()
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	printStats(len(doc.Nodes), len(doc.Links), hit)

	single := len(opts.Render.Formats) == 1 && flags.output != ""
	base := basePath(flags.output, input)
	for _, format := range opts.Render.Formats {
		path := base + "." + format
		if single {
			path = flags.output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
