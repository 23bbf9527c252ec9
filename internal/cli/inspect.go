package cli

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/pipeline"
)

// inspectCommand creates the inspect command, which prints the detected cells
// of each voltage level.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		vlID    string
		pick    bool
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "inspect [topology.json]",
		Short: "Show the cells detected in each voltage level",
		Long: `Lay out a topology document and print, for each voltage level, its
busbars and the cells found by cell detection: extern cells with their
direction, intern cells with their shape, and shunt cells.

Use --vl to restrict the output to one voltage level, or --pick to choose one
interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runInspect(cmd.Context(), opts, vlID, pick, noCache)
		},
	}

	cmd.Flags().StringVar(&vlID, "vl", "", "only show this voltage level")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the voltage level interactively")
	layoutFlags(cmd, &opts, &noCache)

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, vlID string, pick, noCache bool) error {
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
	l, err := runner.ComputeLayout(ctx, t, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	levels, err := selectLevels(l, vlID)
	if err != nil {
		return err
	}
	if pick {
		vl, ok, err := pickLevel(levels)
		if err != nil || !ok {
			return err
		}
		levels = []graph.PlacedVoltageLevel{vl}
	}

	for i, vl := range levels {
		if i > 0 {
			printNewline()
		}
		printInspect(vl)
	}
	return nil
}

// selectLevels returns the voltage levels of l, or only the one named id.
func selectLevels(l graph.Layout, id string) ([]graph.PlacedVoltageLevel, error) {
	levels := l.AllVoltageLevels()
	if id == "" {
		return levels, nil
	}
	for _, vl := range levels {
		if vl.ID == id {
			return []graph.PlacedVoltageLevel{vl}, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "voltage level %q not found", id)
}

// pickLevel runs the interactive picker. ok is false when the user quits
// without choosing.
func pickLevel(levels []graph.PlacedVoltageLevel) (graph.PlacedVoltageLevel, bool, error) {
	final, err := tea.NewProgram(NewVoltageLevelListModel(levels)).Run()
	if err != nil {
		return graph.PlacedVoltageLevel{}, false, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(VoltageLevelListModel)
	if !ok || m.Selected == nil {
		return graph.PlacedVoltageLevel{}, false, nil
	}
	return *m.Selected, true, nil
}

func printInspect(vl graph.PlacedVoltageLevel) {
	fmt.Println(StyleTitle.Render(vl.ID))
	printKeyValue("busbars", strconv.Itoa(len(vl.Buses)))
	printKeyValue("cells", strconv.Itoa(len(vl.Cells)))
	printKeyValue("size", fmt.Sprintf("%.1f × %.1f", vl.Width, vl.Height))
	if len(vl.Cells) > 0 {
		fmt.Println(cellTable(vl))
	}
}
