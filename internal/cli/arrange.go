package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderelax/pkg/arrange"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/pipeline"
)

// arrangeFlags holds the command-line flags for the arrange command.
// Solver flags override the config file only when set explicitly.
type arrangeFlags struct {
	output       string // arranged document path
	formats      string // optional render formats
	noCache      bool
	refresh      bool
	distance     float64
	iterations   string // one count for all phases or four comma-separated counts
	noAdaptive   bool
	onlySelected bool
	background   int
	summary      bool // print the per-phase table
}

// arrangeCommand creates the arrange command.
func (c *CLI) arrangeCommand() *cobra.Command {
	flags := arrangeFlags{summary: true}

	cmd := &cobra.Command{
		Use:   "arrange [file]",
		Short: "Arrange a node graph document",
		Long: `Arrange runs the four-phase solver over a JSON or YAML document:

  1. pull every node toward its linked neighbors
  2. pull again with the horizontal target clamped per side
  3. push overlapping nodes apart vertically
  4. settle with full collision and sibling-aware pulls

The arranged document is written next to the input as <name>.arranged.<ext>
unless -o is given. Results are cached; use --refresh or --no-cache to
recompute.`,
		Example: `  noderelax arrange shader.json
  noderelax arrange shader.yaml -o tidy.yaml --distance 60
  noderelax arrange shader.json --iterations 100,100,50,200 -f svg,png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			return c.runArrange(cmd.Context(), args[0], opts, &flags)
		},
	}

	defaults := arrange.DefaultConfig()
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output document (default: <input>.arranged.<ext>)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "also render: svg, png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().Float64Var(&flags.distance, "distance", defaults.Distance, "clearance between nodes")
	cmd.Flags().StringVar(&flags.iterations, "iterations", "", "iterations per phase: N or N1,N2,N3,N4")
	cmd.Flags().BoolVar(&flags.noAdaptive, "no-adaptive", false, "always run every phase to its iteration limit")
	cmd.Flags().BoolVar(&flags.onlySelected, "only-selected", false, "move selected nodes only")
	cmd.Flags().IntVar(&flags.background, "background-iterations", defaults.BackgroundIterations, "iterations per progress update")
	cmd.Flags().BoolVar(&flags.summary, "summary", flags.summary, "print a per-phase summary")

	return cmd
}

// apply copies explicitly set flags into opts.
func (f *arrangeFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	set := cmd.Flags().Changed
	if set("distance") {
		opts.Arrange.Distance = f.distance
	}
	if set("iterations") {
		iters, err := parseIterations(f.iterations)
		if err != nil {
			return err
		}
		opts.Arrange.Iterations = iters
	}
	if set("no-adaptive") {
		opts.Arrange.Adaptive = !f.noAdaptive
	}
	if set("only-selected") {
		opts.Arrange.OnlySelected = f.onlySelected
	}
	if set("background-iterations") {
		opts.Arrange.BackgroundIterations = f.background
	}
	if f.formats != "" {
		opts.Render.Formats = parseFormats(f.formats)
	}
	opts.Refresh = f.refresh
	return opts.Validate()
}

// parseIterations accepts a single count applied to every phase or one
// count per phase.
func parseIterations(s string) ([arrange.Phases]int, error) {
	var iters [arrange.Phases]int
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != arrange.Phases {
		return iters, fmt.Errorf("iterations: want 1 or %d values, got %d", arrange.Phases, len(parts))
	}
	for i := range iters {
		p := parts[0]
		if len(parts) > 1 {
			p = parts[i]
		}
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return iters, fmt.Errorf("iterations: invalid count %q", p)
		}
		iters[i] = n
	}
	return iters, nil
}

func (c *CLI) runArrange(ctx context.Context, input string, opts pipeline.Options, flags *arrangeFlags) error {
	logger := loggerFromContext(ctx)

	doc, err := graph.ReadFile(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Arranging "+filepath.Base(input))
	spinner.Start()
	prog := newProgress(logger)
	onProgress := func(p arrange.Progress) {
		spinner.SetMessage(fmt.Sprintf("Arranging %s  %s  %3.0f%%", filepath.Base(input), p, 100*p.Fraction()))
	}

	var result *pipeline.Result
	if flags.formats != "" {
		result, err = runner.Execute(ctx, doc, opts, onProgress)
	} else {
		result, err = runner.ExecuteArrange(ctx, doc, opts, onProgress)
	}
	output := flags.output
	if output == "" {
		output = arrangedPath(input)
	}
	if err != nil {
		spinner.Stop()
		if ctx.Err() == nil {
			return err
		}
		// Positions applied before the interrupt are kept.
		if result != nil && result.Arrange.Canceled {
			if werr := graph.WriteFile(output, result.Document); werr != nil {
				return werr
			}
			printWarning("Arrange canceled, partial layout written")
			printFile(output)
		}
		return ctx.Err()
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Arranged %d nodes", result.Stats.NodeCount))

	if err := graph.WriteFile(output, result.Document); err != nil {
		return err
	}

	printSuccess("Arranged %s", input)
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.ArrangeHit)
	printFile(output)
	for _, format := range opts.Render.Formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := basePath("", output) + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	if flags.summary && !result.CacheInfo.ArrangeHit {
		fmt.Println(phaseTable(opts.Arrange, result.Arrange))
	}
	if flags.formats == "" {
		printNextStep("Render it", fmt.Sprintf("%s render %s", appName, output))
	}
	return nil
}
