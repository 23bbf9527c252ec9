package layout

import (
	"fmt"
	"time"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/zone"
	"github.com/matzehuels/singleline/pkg/observability"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Zone is a laid-out zone.
type Zone struct {
	Zone        *topology.Zone
	Substations []*Substation
	Matrix      *zone.Matrix
	Edges       []Edge

	Width, Height float64
}

func (z *Zone) end(ref topology.NodeRef) (zone.End, *Substation, error) {
	for _, s := range z.Substations {
		vl, ok := s.VoltageLevel(ref.Graph)
		if !ok {
			continue
		}
		n, ok := vl.Graph.Lookup(ref.Node)
		if !ok {
			return zone.End{}, nil, errors.New(errors.ErrCodeMissingReference, "unknown node %s", ref)
		}
		return zone.End{Substation: s.ID(), Point: n.Point(), Direction: vl.Direction(n)}, s, nil
	}
	return zone.End{}, nil, errors.New(errors.ErrCodeMissingReference, "unknown voltage level %s", ref.Graph)
}

// LayoutZone lays out every substation of z on a matrix and routes the lines
// between them, in the order z lists them. Lines without a free path, or
// joining a substation to itself, are kept with no points.
func (c *Context) LayoutZone(z *topology.Zone) (*Zone, error) {
	if err := z.Validate(); err != nil {
		c.Logger.Warn("zone has invalid references", "zone", z.ID, "err", err)
	}
	out := &Zone{Zone: z}
	ids := make([]string, 0, len(z.Substations))
	sizes := make([]zone.Size, 0, len(z.Substations))
	for _, sub := range z.Substations {
		s, err := c.LayoutSubstation(sub)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", z.ID, err)
		}
		out.Substations = append(out.Substations, s)
		ids = append(ids, s.ID())
		sizes = append(sizes, zone.Size{Width: s.Width, Height: s.Height})
	}

	p := c.Params
	m := zone.NewMatrix(ids, sizes, p.ZoneHallwayWidth, p.ZoneGridStep)
	for i, s := range out.Substations {
		pl := m.Placements[i]
		s.Translate(pl.X-s.X, pl.Y-s.Y)
	}
	out.Matrix = m
	out.Width, out.Height = m.Width, m.Height

	start := time.Now()
	for _, l := range z.Lines {
		a, sa, errA := out.end(l.From)
		b, sb, errB := out.end(l.To)
		if err := firstErr(errA, errB); err != nil {
			c.skip(z.ID, l.Name, err)
			continue
		}
		e := Edge{Name: l.Name, From: l.From, To: l.To}
		if sa == sb {
			c.Logger.Debug("zone line inside one substation left unrouted", "line", l.Name, "substation", sa.ID())
			out.Edges = append(out.Edges, e)
			continue
		}
		pts, err := m.Route(a, b)
		if err != nil {
			c.skip(z.ID, l.Name, err)
			if !errors.Is(err, errors.ErrCodeNoPath) {
				continue
			}
		}
		e.Points = pts
		out.Edges = append(out.Edges, e)
	}

	observability.Layout().OnStage(z.ID, observability.StageRoute, time.Since(start))

	c.Logger.Debug("zone laid out", "zone", z.ID, "substations", len(out.Substations), "edges", len(out.Edges),
		"rows", m.Rows, "cols", m.Cols)
	return out, nil
}
