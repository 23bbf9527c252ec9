package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

// layoutFlags registers the flags shared by every command that lays out a
// topology.
func layoutFlags(cmd *cobra.Command, opts *pipeline.Options, noCache *bool) {
	cmd.Flags().StringVarP(&opts.ParamsPath, "params", "p", "", "layout parameters file (TOML)")
	cmd.Flags().StringVar(&opts.HintsPath, "hints", "", "position hints sidecar (TOML)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", opts.Strategy, "busbar merge strategy: auto (default), greedy")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().BoolVar(noCache, "no-cache", false, "disable caching")
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "layout [topology.json]",
		Short: "Compute the layout of a topology document",
		Long: `Compute the layout of a topology document.

The input holds a single voltage level, a substation or a zone. The output is
a layout.json file with the coordinates of every node, the busbar segments,
the detected cells and the routed lines. Render it with 'render' or read it
from your own tooling.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	layoutFlags(cmd, &opts, &noCache)

	return cmd
}

// runLayout reads the topology, computes the layout and writes it.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if err := checkOutput(output); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	t, err := runner.Read(ctx, opts)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", opts.Input, err)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %s %s...", t.Scope(), t.ID()))
	spinner.Start()

	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	path := output
	if path == "" {
		path = outputPath(basePath(opts.Input), pipeline.FormatJSON)
	}
	if err := graph.WriteLayoutFile(l, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	vls := l.AllVoltageLevels()
	nodes := 0
	for _, vl := range vls {
		nodes += len(vl.Nodes)
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(len(vls), nodes, len(l.AllEdges()), cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+opts.Input)

	return nil
}
