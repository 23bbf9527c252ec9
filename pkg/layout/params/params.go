// Package params defines the geometry and behavior knobs of the layout engine.
//
// Parameters are plain values: [Default] returns the stock configuration,
// [LoadFile] overlays a TOML file on top of it, and [Parameters.Validate]
// rejects values the engine cannot work with. A minimal file:
//
//	cell_width = 60
//	busbars_alignment = "FIRST"
//	components_on_busbars = ["DISCONNECTOR", "BREAKER"]
//
//	[voltage_level_padding]
//	top = 40
package params

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Alignment selects which busbar rows are aligned across the voltage levels
// of a horizontal substation.
type Alignment string

const (
	AlignFirst  Alignment = "FIRST"
	AlignLast   Alignment = "LAST"
	AlignMiddle Alignment = "MIDDLE"
	AlignNone   Alignment = "NONE"
)

// SubstationLayout selects how voltage levels are arranged in a substation.
type SubstationLayout string

const (
	Horizontal SubstationLayout = "horizontal"
	Vertical   SubstationLayout = "vertical"
)

// Padding is a margin around a diagram or voltage level, in pixels.
type Padding struct {
	Left   float64 `toml:"left" json:"left"`
	Top    float64 `toml:"top" json:"top"`
	Right  float64 `toml:"right" json:"right"`
	Bottom float64 `toml:"bottom" json:"bottom"`
}

// Parameters configures one layout run. All lengths are pixels.
type Parameters struct {
	CellWidth                  float64 `toml:"cell_width" json:"cell_width"`
	ExternCellHeight           float64 `toml:"extern_cell_height" json:"extern_cell_height"`
	InternCellHeight           float64 `toml:"intern_cell_height" json:"intern_cell_height"`
	StackHeight                float64 `toml:"stack_height" json:"stack_height"`
	VerticalSpaceBus           float64 `toml:"vertical_space_bus" json:"vertical_space_bus"`
	HorizontalBusPadding       float64 `toml:"horizontal_bus_padding" json:"horizontal_bus_padding"`
	HorizontalSnakeLinePadding float64 `toml:"horizontal_snake_line_padding" json:"horizontal_snake_line_padding"`
	VerticalSnakeLinePadding   float64 `toml:"vertical_snake_line_padding" json:"vertical_snake_line_padding"`
	MinSpaceBetweenComponents  float64 `toml:"min_space_between_components" json:"min_space_between_components"`

	BusbarsAlignment         Alignment        `toml:"busbars_alignment" json:"busbars_alignment"`
	AdaptCellHeightToContent bool             `toml:"adapt_cell_height_to_content" json:"adapt_cell_height_to_content"`
	Stack                    bool             `toml:"stack" json:"stack"`
	IgnoreUnhandledPatterns  bool             `toml:"ignore_unhandled_patterns" json:"ignore_unhandled_patterns"`
	SubstationLayout         SubstationLayout `toml:"substation_layout" json:"substation_layout"`

	RemoveFictitiousSwitchNodes              bool     `toml:"remove_fictitious_switch_nodes" json:"remove_fictitious_switch_nodes"`
	RemoveUnnecessaryFictitiousNodes         bool     `toml:"remove_unnecessary_fictitious_nodes" json:"remove_unnecessary_fictitious_nodes"`
	SubstituteSingularFictitiousByFeederNode bool     `toml:"substitute_singular_fictitious_by_feeder_node" json:"substitute_singular_fictitious_by_feeder_node"`
	ComponentsOnBusbars                      []string `toml:"components_on_busbars" json:"components_on_busbars"`

	DiagramPadding      Padding `toml:"diagram_padding" json:"diagram_padding"`
	VoltageLevelPadding Padding `toml:"voltage_level_padding" json:"voltage_level_padding"`

	ZoneHallwayWidth float64 `toml:"zone_hallway_width" json:"zone_hallway_width"`
	ZoneGridStep     float64 `toml:"zone_grid_step" json:"zone_grid_step"`
}

// Default returns the stock parameters.
func Default() Parameters {
	return Parameters{
		CellWidth:                  50,
		ExternCellHeight:           250,
		InternCellHeight:           40,
		StackHeight:                30,
		VerticalSpaceBus:           25,
		HorizontalBusPadding:       20,
		HorizontalSnakeLinePadding: 20,
		VerticalSnakeLinePadding:   25,
		MinSpaceBetweenComponents:  15,

		BusbarsAlignment: AlignFirst,
		Stack:            true,
		SubstationLayout: Horizontal,

		RemoveUnnecessaryFictitiousNodes:         true,
		SubstituteSingularFictitiousByFeederNode: true,
		ComponentsOnBusbars:                      []string{topology.ComponentDisconnector},

		DiagramPadding:      Padding{Left: 20, Top: 20, Right: 20, Bottom: 20},
		VoltageLevelPadding: Padding{Left: 20, Top: 60, Right: 20, Bottom: 60},

		ZoneHallwayWidth: 60,
		ZoneGridStep:     10,
	}
}

// FeederSpan is the distance between a feeder node and the hook it hangs from.
func (p Parameters) FeederSpan() float64 { return 2 * p.StackHeight }

// Validate reports the first invalid field.
func (p Parameters) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"cell_width", p.CellWidth},
		{"extern_cell_height", p.ExternCellHeight},
		{"intern_cell_height", p.InternCellHeight},
		{"zone_grid_step", p.ZoneGridStep},
	}
	for _, f := range positive {
		if f.v <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be positive, got %g", f.name, f.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"stack_height", p.StackHeight},
		{"vertical_space_bus", p.VerticalSpaceBus},
		{"horizontal_bus_padding", p.HorizontalBusPadding},
		{"horizontal_snake_line_padding", p.HorizontalSnakeLinePadding},
		{"vertical_snake_line_padding", p.VerticalSnakeLinePadding},
		{"min_space_between_components", p.MinSpaceBetweenComponents},
		{"zone_hallway_width", p.ZoneHallwayWidth},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must not be negative, got %g", f.name, f.v)
		}
	}
	if p.HorizontalBusPadding >= p.CellWidth {
		return errors.New(errors.ErrCodeInvalidInput, "horizontal_bus_padding (%g) must be smaller than cell_width (%g)", p.HorizontalBusPadding, p.CellWidth)
	}
	if !slices.Contains([]Alignment{AlignFirst, AlignLast, AlignMiddle, AlignNone}, p.BusbarsAlignment) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown busbars_alignment %q", p.BusbarsAlignment)
	}
	if p.SubstationLayout != Horizontal && p.SubstationLayout != Vertical {
		return errors.New(errors.ErrCodeInvalidInput, "unknown substation_layout %q", p.SubstationLayout)
	}
	return nil
}

// Decode overlays the TOML document read from r on top of [Default] and
// validates the result. Unknown keys are rejected.
func Decode(r io.Reader) (Parameters, error) {
	p := Default()
	md, err := toml.NewDecoder(r).Decode(&p)
	if err != nil {
		return Parameters{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout parameters")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Parameters{}, errors.New(errors.ErrCodeInvalidInput, "unknown layout parameter %q", undecoded[0].String())
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// LoadFile reads parameters from a TOML file.
func LoadFile(path string) (Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return Parameters{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return Parameters{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Encode writes p as TOML.
func (p Parameters) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}
