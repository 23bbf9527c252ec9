package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/singleline/pkg/pipeline"
)

// renderCommand creates the render command, which runs the whole pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formats string
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "render [topology.json]",
		Short: "Lay out a topology and render it",
		Long: `Lay out a topology document and render the result.

Formats:
  json     the layout document (same as 'layout')
  svg      a schematic preview of the layout
  png,pdf  the SVG preview converted with rsvg-convert
  dot      the raw topology as Graphviz DOT
  dot-svg  the raw topology drawn by Graphviz

Files are written next to the input unless --output names a directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formats)
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats: json, svg, png, pdf, dot, dot-svg (comma-separated, default svg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default: next to the input)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", opts.Labels, "write busbar and feeder names in the SVG preview")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show node attributes in DOT output")
	layoutFlags(cmd, &opts, &noCache)

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}
	if err := checkOutput(output); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(opts.Input)
	if output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		base = filepath.Join(output, filepath.Base(base))
	}

	formats := make([]string, 0, len(result.Artifacts))
	for format := range result.Artifacts {
		formats = append(formats, format)
	}
	slices.Sort(formats)

	var paths []string
	for _, format := range formats {
		path := outputPath(base, format)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	prog.done(fmt.Sprintf("Rendered %d formats", len(paths)))

	printSuccess("Rendered %s", result.Topology.ID())
	for _, path := range paths {
		printFile(path)
	}
	printStats(result.Stats.VoltageLevels, result.Stats.NodeCount, result.Stats.EdgeCount,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)

	return nil
}
