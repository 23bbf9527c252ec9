package layout

import (
	"fmt"
	"time"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/layout/coord"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/observability"
	"github.com/matzehuels/singleline/pkg/topology"
	"github.com/matzehuels/singleline/pkg/topology/transform"
)

// VoltageLevel is a laid-out voltage level.
type VoltageLevel struct {
	Graph      *topology.Graph
	Cells      *cell.Set
	Positions  *position.Result
	Frame      *coord.Frame
	Refinement transform.Report
}

// ID returns the voltage-level id.
func (v *VoltageLevel) ID() string { return v.Graph.ID() }

// Direction returns the side of the busbars node n is drawn on: the direction
// of its cell, else its own hint, else top.
func (v *VoltageLevel) Direction(n *topology.Node) topology.Direction {
	if x := v.Cells.Get(n.Cell); x != nil && x.Direction != topology.DirectionUndefined {
		return x.Direction
	}
	if n.Direction != topology.DirectionUndefined {
		return n.Direction
	}
	return topology.DirectionTop
}

// LayoutVoltageLevel lays out g in place, with its top-left corner at the
// origin.
func (c *Context) LayoutVoltageLevel(g *topology.Graph) (*VoltageLevel, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "voltage level %s", g.ID())
	}
	hooks := observability.Layout()
	start := time.Now()
	stage := func(st observability.Stage) {
		now := time.Now()
		hooks.OnStage(g.ID(), st, now.Sub(start))
		start = now
	}

	p := c.Params
	report := transform.Refine(g, transform.Options{
		RemoveUnnecessaryFictitiousNodes:         p.RemoveUnnecessaryFictitiousNodes,
		SubstituteSingularFictitiousByFeederNode: p.SubstituteSingularFictitiousByFeederNode,
		RemoveFictitiousSwitchNodes:              p.RemoveFictitiousSwitchNodes,
		ComponentsOnBusbars:                      p.ComponentsOnBusbars,
	})
	c.Logger.Debug("graph refined", "vl", g.ID(), "rewritten", report.Total(), "nodes", g.NodeCount())
	stage(observability.StageRefine)

	s := cell.Detect(g, c.Logger)
	stage(observability.StageDetect)
	if err := cell.Decompose(g, s, cell.DecomposeOptions{
		Stack:                   p.Stack,
		IgnoreUnhandledPatterns: p.IgnoreUnhandledPatterns,
	}); err != nil {
		return nil, fmt.Errorf("voltage level %s: %w", g.ID(), err)
	}
	c.Logger.Debug("cells detected", "vl", g.ID(), "count", len(s.Cells))
	stage(observability.StageDecompose)

	finder := &position.Finder{Strategy: c.Strategy, Logger: c.Logger}
	res, err := finder.Find(g, s)
	if err != nil {
		return nil, fmt.Errorf("voltage level %s: %w", g.ID(), err)
	}
	stage(observability.StagePosition)

	f := coord.Calculate(g, s, res, p)
	stage(observability.StageCoord)
	c.Logger.Debug("voltage level laid out", "vl", g.ID(), "slots", res.MaxBusPosition, "rows", res.Rows,
		"width", f.Width, "height", f.Height)

	return &VoltageLevel{Graph: g, Cells: s, Positions: res, Frame: f, Refinement: report}, nil
}
