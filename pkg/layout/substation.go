package layout

import (
	"fmt"
	"time"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/snake"
	"github.com/matzehuels/singleline/pkg/observability"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Edge is a routed connection between two graphs: a line, or a transformer
// leg ending on the transformer middle node.
type Edge struct {
	Name   string
	From   topology.NodeRef
	To     topology.NodeRef
	Points []topology.Point
}

// Substation is a laid-out substation.
type Substation struct {
	Substation    *topology.Substation
	VoltageLevels []*VoltageLevel
	Edges         []Edge

	X, Y          float64
	Width, Height float64
}

// ID returns the substation id.
func (s *Substation) ID() string { return s.Substation.ID }

// VoltageLevel returns the laid-out voltage level with the given id.
func (s *Substation) VoltageLevel(id string) (*VoltageLevel, bool) {
	for _, vl := range s.VoltageLevels {
		if vl.ID() == id {
			return vl, true
		}
	}
	return nil, false
}

// Translate moves the substation and everything in it by (dx, dy).
func (s *Substation) Translate(dx, dy float64) {
	s.X += dx
	s.Y += dy
	for _, vl := range s.VoltageLevels {
		vl.Frame.Translate(vl.Graph, dx, dy)
	}
	for i := range s.Edges {
		for j := range s.Edges[i].Points {
			s.Edges[i].Points[j].X += dx
			s.Edges[i].Points[j].Y += dy
		}
	}
	for _, t := range s.Substation.Transformers {
		t.X += dx
		t.Y += dy
	}
}

func (s *Substation) end(ref topology.NodeRef) (snake.End, error) {
	vl, ok := s.VoltageLevel(ref.Graph)
	if !ok {
		return snake.End{}, errors.New(errors.ErrCodeMissingReference, "unknown voltage level %s", ref.Graph)
	}
	n, ok := vl.Graph.Lookup(ref.Node)
	if !ok {
		return snake.End{}, errors.New(errors.ErrCodeMissingReference, "unknown node %s", ref)
	}
	return snake.End{VL: ref.Graph, Point: n.Point(), Direction: vl.Direction(n)}, nil
}

// LayoutSubstation lays out every voltage level of sub and routes the lines
// and transformers between them. The substation is laid out with its
// top-left corner at the origin. Lines and transformer legs referencing
// unknown voltage levels or nodes are logged and skipped.
func (c *Context) LayoutSubstation(sub *topology.Substation) (*Substation, error) {
	if err := sub.Validate(); err != nil {
		c.Logger.Warn("substation has invalid references", "substation", sub.ID, "err", err)
	}
	out := &Substation{Substation: sub}
	for _, g := range sub.VoltageLevels {
		vl, err := c.LayoutVoltageLevel(g)
		if err != nil {
			return nil, fmt.Errorf("substation %s: %w", sub.ID, err)
		}
		out.VoltageLevels = append(out.VoltageLevels, vl)
	}

	start := time.Now()
	c.Counters.Reset()
	c.place(out)
	c.route(out, false)

	c.enlarge(out)
	c.place(out)
	c.Counters.Reset()
	c.route(out, true)
	observability.Layout().OnStage(sub.ID, observability.StageRoute, time.Since(start))

	c.Logger.Debug("substation laid out", "substation", sub.ID, "voltage_levels", len(out.VoltageLevels),
		"edges", len(out.Edges), "width", out.Width, "height", out.Height)
	return out, nil
}

// place positions the voltage levels of s, side by side with their busbars
// aligned or stacked, leaving room for the global lanes counted so far.
func (c *Context) place(s *Substation) {
	p := c.Params
	pad := p.DiagramPadding
	if len(s.VoltageLevels) == 0 {
		s.Width, s.Height = pad.Left+pad.Right, pad.Top+pad.Bottom
		return
	}

	if p.SubstationLayout == params.Vertical {
		left := pad.Left + float64(c.Counters.Global(topology.SideLeft))*p.HorizontalSnakeLinePadding
		right := pad.Right + float64(c.Counters.Global(topology.SideRight))*p.HorizontalSnakeLinePadding
		y, width := pad.Top, 0.0
		for _, vl := range s.VoltageLevels {
			f := vl.Frame
			f.Translate(vl.Graph, s.X+left-f.X, s.Y+y-f.Y)
			y += f.Height
			width = max(width, f.Width)
		}
		s.Width = left + width + right
		s.Height = y + pad.Bottom
		return
	}

	offsets := alignment(s.VoltageLevels, p.BusbarsAlignment)
	x, height := pad.Left, 0.0
	for i, vl := range s.VoltageLevels {
		f := vl.Frame
		f.Translate(vl.Graph, s.X+x-f.X, s.Y+pad.Top+offsets[i]-f.Y)
		x += f.Width
		height = max(height, offsets[i]+f.Height)
	}
	s.Width = x + pad.Right
	s.Height = pad.Top + height + pad.Bottom
}

// alignment returns the vertical offset of every voltage level that lines up
// the busbar rows selected by a.
func alignment(vls []*VoltageLevel, a params.Alignment) []float64 {
	refs := make([]float64, len(vls))
	top := 0.0
	for i, vl := range vls {
		f := vl.Frame
		switch a {
		case params.AlignFirst:
			refs[i] = f.FirstBusY() - f.Y
		case params.AlignLast:
			refs[i] = f.LastBusY() - f.Y
		case params.AlignMiddle:
			refs[i] = (f.FirstBusY()+f.LastBusY())/2 - f.Y
		}
		top = max(top, refs[i])
	}
	offsets := make([]float64, len(vls))
	for i := range refs {
		offsets[i] = top - refs[i]
	}
	return offsets
}

// enlarge grows voltage-level paddings so that every lane counted by the
// last routing pass fits, with one lane of margin.
func (c *Context) enlarge(s *Substation) {
	p := c.Params
	need := func(n int, step, have float64) float64 {
		if n == 0 {
			return 0
		}
		return max(0, float64(n+1)*step-have)
	}
	for _, vl := range s.VoltageLevels {
		id, pad := vl.ID(), vl.Frame.Padding()
		m := params.Padding{
			Top:    need(c.Counters.TopBottom(id, topology.DirectionTop), p.VerticalSnakeLinePadding, pad.Top),
			Bottom: need(c.Counters.TopBottom(id, topology.DirectionBottom), p.VerticalSnakeLinePadding, pad.Bottom),
			Left:   need(c.Counters.Side(id, topology.SideLeft), p.HorizontalSnakeLinePadding, pad.Left),
			Right:  need(c.Counters.Side(id, topology.SideRight), p.HorizontalSnakeLinePadding, pad.Right),
		}
		if m != (params.Padding{}) {
			c.Logger.Debug("padding enlarged for snake lines", "vl", id, "top", m.Top, "bottom", m.Bottom,
				"left", m.Left, "right", m.Right)
			vl.Frame.Enlarge(vl.Graph, m)
		}
	}
}

// route routes the lines and transformer legs of s, replacing its edges.
// Skipped edges are only reported on the final pass.
func (c *Context) route(s *Substation, final bool) {
	skip := func(edge string, err error) {
		if final {
			c.skip(s.ID(), edge, err)
		}
	}
	boxes := make([]snake.Box, 0, len(s.VoltageLevels))
	for _, vl := range s.VoltageLevels {
		f := vl.Frame
		boxes = append(boxes, snake.Box{ID: vl.ID(), X: f.X, Y: f.Y, Width: f.Width, Height: f.Height, Padding: f.Padding()})
	}
	r := snake.NewRouter(c.Counters, c.Params, boxes)
	s.Edges = s.Edges[:0]

	for _, l := range s.Substation.Lines {
		a, errA := s.end(l.From)
		b, errB := s.end(l.To)
		if err := firstErr(errA, errB); err != nil {
			skip(l.Name, err)
			continue
		}
		pts, err := r.Route(a, b)
		if err != nil {
			skip(l.Name, err)
			continue
		}
		s.Edges = append(s.Edges, Edge{Name: l.Name, From: l.From, To: l.To, Points: pts})
	}

	for _, t := range s.Substation.Transformers {
		if err := c.routeTransformer(s, r, t); err != nil {
			skip(t.Name, err)
		}
	}
}

func (c *Context) routeTransformer(s *Substation, r *snake.Router, t *topology.MultiTerminal) error {
	ends := make([]snake.End, len(t.Legs))
	for i, ref := range t.Legs {
		e, err := s.end(ref)
		if err != nil {
			return err
		}
		ends[i] = e
	}

	var (
		mid   topology.Point
		edges [][]topology.Point
	)
	switch {
	case t.Kind == topology.KindMiddle2WT && len(ends) == 2:
		poly, err := r.Route(ends[0], ends[1])
		if err != nil {
			return err
		}
		mid, edges = snake.TwoWinding(poly)
	case t.Kind == topology.KindMiddle3WT && len(ends) == 3:
		p12, err := r.Route(ends[0], ends[1])
		if err != nil {
			return err
		}
		p23, err := r.Route(ends[1], ends[2])
		if err != nil {
			return err
		}
		mid, edges = snake.ThreeWinding(p12, p23)
	default:
		return fmt.Errorf("%w: %s with %d legs", topology.ErrInvalidMultiTerminal, t.Kind, len(t.Legs))
	}

	t.X, t.Y = mid.X, mid.Y
	middle := topology.NodeRef{Graph: s.ID(), Node: t.Name}
	for i, e := range edges {
		s.Edges = append(s.Edges, Edge{
			Name:   fmt.Sprintf("%s_%d", t.Name, i+1),
			From:   t.Legs[i],
			To:     middle,
			Points: e,
		})
	}
	return nil
}

// skip reports an edge left out of the routing.
func (c *Context) skip(id, edge string, err error) {
	c.Logger.Warn("skipping edge", "in", id, "edge", edge, "err", err)
	observability.Layout().OnSkipped(id, edge, err)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
