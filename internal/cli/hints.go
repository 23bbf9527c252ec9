package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

// hintsCommand creates the hints command, which writes a sidecar pinning the
// feeder directions and busbar positions of a layout.
func (c *CLI) hintsCommand() *cobra.Command {
	var (
		output   string
		embedded bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "hints [topology.json]",
		Short: "Write a position hints sidecar",
		Long: `Write a position hints sidecar for a topology document.

By default the topology is laid out and every feeder direction, feeder order,
busbar row and busbar section of the result is pinned, so that later runs
keep the same arrangement after edits to the topology.

With --embedded only the hints already carried by the topology document are
extracted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runHints(cmd.Context(), opts, output, embedded)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.hints.toml)")
	cmd.Flags().BoolVar(&embedded, "embedded", false, "extract the hints of the topology instead of pinning a layout")
	cmd.Flags().StringVarP(&opts.ParamsPath, "params", "p", "", "layout parameters file (TOML)")
	cmd.Flags().StringVar(&opts.HintsPath, "hints", "", "position hints applied before layout (TOML)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", opts.Strategy, "busbar merge strategy: auto (default), greedy")

	return cmd
}

func (c *CLI) runHints(ctx context.Context, opts pipeline.Options, output string, embedded bool) error {
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}
	if err := checkOutput(output); err != nil {
		return err
	}
	opts.Logger = c.Logger

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	t, err := runner.Read(ctx, opts)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", opts.Input, err)
	}
	in, err := pipeline.Convert(t)
	if err != nil {
		return err
	}

	var h sldio.Hints
	if embedded {
		h = sldio.Extract(in.Graphs())
	} else {
		p, err := opts.ResolveParams()
		if err != nil {
			return err
		}
		applied, err := opts.ResolveHints()
		if err != nil {
			return err
		}
		if h, err = pipeline.PinHints(in, p, applied, opts.Strategy, opts.Logger); err != nil {
			return fmt.Errorf("compute layout: %w", err)
		}
	}
	if h.Len() == 0 {
		printWarning("No hints found in %s", opts.Input)
		return nil
	}

	path := output
	if path == "" {
		path = basePath(opts.Input) + ".hints.toml"
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := h.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	printSuccess("Wrote %d feeder and %d busbar hints", len(h.Feeders), len(h.Buses))
	printFile(path)
	printNewline()
	printNextStep("Reuse", fmt.Sprintf("%s render %s --hints %s", appName, opts.Input, path))
	return nil
}
