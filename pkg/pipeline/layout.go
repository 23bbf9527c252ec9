package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/layout"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/topology"
)

// =============================================================================
// Layout Generation
// =============================================================================

// Input is a decoded topology ready for the layout engine. Exactly one of
// the scope fields is set.
type Input struct {
	Scope        string
	VoltageLevel *topology.Graph
	Substation   *topology.Substation
	Zone         *topology.Zone
}

// Graphs returns every voltage-level graph of the input.
func (in *Input) Graphs() []*topology.Graph {
	switch {
	case in.VoltageLevel != nil:
		return []*topology.Graph{in.VoltageLevel}
	case in.Substation != nil:
		return in.Substation.VoltageLevels
	case in.Zone != nil:
		var out []*topology.Graph
		for _, s := range in.Zone.Substations {
			out = append(out, s.VoltageLevels...)
		}
		return out
	}
	return nil
}

// Convert builds the layout-engine graphs of a topology document.
func Convert(t graph.Topology) (*Input, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	in := &Input{Scope: t.Scope()}
	var err error
	switch in.Scope {
	case graph.ScopeVoltageLevel:
		in.VoltageLevel, err = graph.ToGraph(*t.VoltageLevel)
	case graph.ScopeSubstation:
		in.Substation, err = graph.ToSubstation(*t.Substation)
	case graph.ScopeZone:
		in.Zone, err = graph.ToZone(*t.Zone)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Strategy maps a strategy name to the merge strategy of a layout context.
// StrategyAuto maps to nil, which lets every voltage level pick its own.
func Strategy(name string) (position.MergeStrategy, error) {
	switch name {
	case "", StrategyAuto:
		return nil, nil
	case StrategyGreedy:
		return position.Greedy{}, nil
	}
	return nil, ValidateStrategy(name)
}

// GenerateLayout applies the hints to the input graphs, lays the input out
// and exports it. The graphs of in are modified in place.
func GenerateLayout(in *Input, p params.Parameters, h sldio.Hints, strategy string, logger *log.Logger) (graph.Layout, error) {
	l, _, err := generate(in, p, h, strategy, logger)
	return l, err
}

// PinHints lays the input out like [GenerateLayout] and returns the hints
// that reproduce the result: feeder directions and orders, busbar rows and
// sections.
func PinHints(in *Input, p params.Parameters, h sldio.Hints, strategy string, logger *log.Logger) (sldio.Hints, error) {
	_, vls, err := generate(in, p, h, strategy, logger)
	if err != nil {
		return sldio.Hints{}, err
	}
	return sldio.FromLayout(vls), nil
}

func generate(in *Input, p params.Parameters, h sldio.Hints, strategy string, logger *log.Logger) (graph.Layout, []*layout.VoltageLevel, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := p.Validate(); err != nil {
		return graph.Layout{}, nil, err
	}
	ms, err := Strategy(strategy)
	if err != nil {
		return graph.Layout{}, nil, err
	}

	if h.Len() > 0 {
		report := h.Apply(in.Graphs(), logger)
		logger.Info("applied position hints", "applied", report.Applied, "missing", len(report.Missing))
	}

	ctx := layout.NewContext(p, logger)
	ctx.Strategy = ms

	switch {
	case in.VoltageLevel != nil:
		vl, err := ctx.LayoutVoltageLevel(in.VoltageLevel)
		if err != nil {
			return graph.Layout{}, nil, err
		}
		return graph.ExportVoltageLevel(vl), []*layout.VoltageLevel{vl}, nil
	case in.Substation != nil:
		s, err := ctx.LayoutSubstation(in.Substation)
		if err != nil {
			return graph.Layout{}, nil, err
		}
		return graph.ExportSubstation(s), s.VoltageLevels, nil
	case in.Zone != nil:
		z, err := ctx.LayoutZone(in.Zone)
		if err != nil {
			return graph.Layout{}, nil, err
		}
		var vls []*layout.VoltageLevel
		for _, s := range z.Substations {
			vls = append(vls, s.VoltageLevels...)
		}
		return graph.ExportZone(z), vls, nil
	}
	return graph.Layout{}, nil, errors.New(errors.ErrCodeInvalidInput, "empty input")
}
