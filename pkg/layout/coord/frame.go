package coord

import (
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Segment is the drawn extent of a bus.
type Segment struct {
	X1, X2, Y float64
}

// Frame is the pixel box of a laid-out voltage level.
type Frame struct {
	X, Y          float64
	Width, Height float64

	// CellHeight is the extern cell height in use, adapted to content or not.
	CellHeight float64
	// TopExtent and BottomExtent are the heights reserved above the first and
	// below the last busbar row, hooks excluded.
	TopExtent, BottomExtent float64

	Rows  int
	Buses map[topology.NodeID]Segment

	p params.Parameters
}

func newFrame(res *position.Result, p params.Parameters, cellHeight float64) *Frame {
	f := &Frame{
		CellHeight: cellHeight,
		Rows:       max(res.Rows, 1),
		Buses:      make(map[topology.NodeID]Segment, len(res.Buses)),
		p:          p,
	}
	f.TopExtent = max(cellHeight+p.FeederSpan(), float64(res.Levels[topology.DirectionTop])*p.InternCellHeight)
	f.BottomExtent = max(cellHeight+p.FeederSpan(), float64(res.Levels[topology.DirectionBottom])*p.InternCellHeight)
	pad := p.VoltageLevelPadding
	f.Width = pad.Left + float64(res.MaxBusPosition)*p.CellWidth + pad.Right
	f.Height = pad.Top + f.TopExtent + 2*p.StackHeight + float64(f.Rows-1)*p.VerticalSpaceBus + f.BottomExtent + pad.Bottom
	return f
}

// BusY returns the Y of busbar row (1 at the top).
func (f *Frame) BusY(row int) float64 {
	return f.Y + f.p.VoltageLevelPadding.Top + f.TopExtent + f.p.StackHeight + float64(row-1)*f.p.VerticalSpaceBus
}

// FirstBusY returns the Y of the first busbar row.
func (f *Frame) FirstBusY() float64 { return f.BusY(1) }

// LastBusY returns the Y of the last busbar row.
func (f *Frame) LastBusY() float64 { return f.BusY(f.Rows) }

// SlotX returns the left edge of slot h.
func (f *Frame) SlotX(h int) float64 {
	return f.X + f.p.VoltageLevelPadding.Left + float64(h)*f.p.CellWidth
}

// edge returns the Y of the busbar row cells of direction d hang from.
func (f *Frame) edge(d topology.Direction) float64 {
	if d == topology.DirectionBottom {
		return f.LastBusY()
	}
	return f.FirstBusY()
}

// Translate moves the frame and every node of g by (dx, dy).
func (f *Frame) Translate(g *topology.Graph, dx, dy float64) {
	f.X += dx
	f.Y += dy
	for id, s := range f.Buses {
		f.Buses[id] = Segment{X1: s.X1 + dx, X2: s.X2 + dx, Y: s.Y + dy}
	}
	for _, n := range g.Nodes() {
		n.X += dx
		n.Y += dy
	}
}

// Padding returns the voltage-level padding of the frame.
func (f *Frame) Padding() params.Padding { return f.p.VoltageLevelPadding }

// Enlarge grows the padding of the frame by m, moving the content right by
// m.Left and down by m.Top.
func (f *Frame) Enlarge(g *topology.Graph, m params.Padding) {
	pad := &f.p.VoltageLevelPadding
	pad.Left += m.Left
	pad.Top += m.Top
	pad.Right += m.Right
	pad.Bottom += m.Bottom
	f.Width += m.Left + m.Right
	f.Height += m.Top + m.Bottom
	for id, s := range f.Buses {
		f.Buses[id] = Segment{X1: s.X1 + m.Left, X2: s.X2 + m.Left, Y: s.Y + m.Top}
	}
	for _, n := range g.Nodes() {
		n.X += m.Left
		n.Y += m.Top
	}
}
