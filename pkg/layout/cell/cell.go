package cell

import (
	"slices"
	"strings"

	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Kind classifies cells.
type Kind int

const (
	// Intern cells connect buses to buses (couplings, bus ties).
	Intern Kind = iota
	// Extern cells connect buses to feeders.
	Extern
	// Shunt cells link two extern cells through a chain between shunt nodes.
	Shunt
	// Arch cells hang feeders from a shunt node without reaching any bus.
	Arch
)

// String returns the upper-case kind name.
func (k Kind) String() string {
	switch k {
	case Intern:
		return "INTERN"
	case Extern:
		return "EXTERN"
	case Shunt:
		return "SHUNT"
	default:
		return "ARCH"
	}
}

// Shape is the drawing pattern of an intern cell.
type Shape int

const (
	ShapeUndefined Shape = iota
	// ShapeOneLeg: every leg ends on the same hook.
	ShapeOneLeg
	// ShapeVertical: both legs sit in the same leg-bus set.
	ShapeVertical
	// ShapeFlat: the cell is drawn on the busbar row between two adjacent buses.
	ShapeFlat
	// ShapeCrossover: the body runs above other cells between two leg-bus sets.
	ShapeCrossover
)

// String returns the upper-case shape name.
func (s Shape) String() string {
	switch s {
	case ShapeOneLeg:
		return "ONE_LEG"
	case ShapeVertical:
		return "VERTICAL"
	case ShapeFlat:
		return "FLAT"
	case ShapeCrossover:
		return "CROSSOVER"
	default:
		return "UNDEFINED"
	}
}

// Cell is a connected group of nodes laid out as one unit.
//
// Non-bus nodes belong to exactly one intern, extern or arch cell; shunt nodes
// additionally belong to the shunt cells linking them. Buses are shared by
// every cell hanging from them.
type Cell struct {
	ID        int
	Kind      Kind
	Nodes     []topology.NodeID // sorted by id
	Direction topology.Direction
	Shape     Shape

	// Root is the block tree of the cell once decomposed.
	Root block.Block

	// Legs and Body are set for intern cells with two leg groups. Legs[0]
	// holds the leg whose smallest bus name sorts first.
	Legs [2]block.Block
	Body block.Block
	// Sides gives the side of each leg group, set by the position finder.
	Sides [2]topology.Side
	// Level is the stacking level of an intern body above the busbars.
	Level int

	// Pivot is the shunt node an arch cell hangs from.
	Pivot topology.NodeID
	// Ends are the two shunt nodes of a shunt cell.
	Ends [2]topology.NodeID

	fullID string
}

func newCell(g *topology.Graph, id int, kind Kind, nodes []topology.NodeID) *Cell {
	sorted := slices.Clone(nodes)
	slices.Sort(sorted)
	names := make([]string, len(sorted))
	for i, n := range sorted {
		names[i] = g.Name(n)
	}
	slices.Sort(names)
	return &Cell{
		ID:     id,
		Kind:   kind,
		Nodes:  sorted,
		Pivot:  topology.NoNode,
		Ends:   [2]topology.NodeID{topology.NoNode, topology.NoNode},
		fullID: kind.String() + "[" + strings.Join(names, ",") + "]",
	}
}

// FullID is a stable identifier derived from the cell kind and node names.
// It does not depend on creation order and is used as a sort key.
func (c *Cell) FullID() string { return c.fullID }

// Contains reports whether id is a node of the cell.
func (c *Cell) Contains(id topology.NodeID) bool {
	_, ok := slices.BinarySearch(c.Nodes, id)
	return ok
}

// Buses returns the buses of the cell sorted by name.
func (c *Cell) Buses(g *topology.Graph) []topology.NodeID {
	return c.nodesOfKind(g, topology.KindBus)
}

// Feeders returns the feeders of the cell sorted by name.
func (c *Cell) Feeders(g *topology.Graph) []topology.NodeID {
	return c.nodesOfKind(g, topology.KindFeeder)
}

func (c *Cell) nodesOfKind(g *topology.Graph, k topology.Kind) []topology.NodeID {
	var out []topology.NodeID
	for _, id := range c.Nodes {
		if g.Node(id).Kind == k {
			out = append(out, id)
		}
	}
	g.SortIDs(out)
	return out
}

// LegBuses returns the buses of leg group i of a two-leg intern cell.
func (c *Cell) LegBuses(g *topology.Graph, i int) []topology.NodeID {
	if c.Legs[i] == nil {
		return nil
	}
	var out []topology.NodeID
	for _, l := range block.Legs(c.Legs[i]) {
		out = append(out, l.Bus)
	}
	g.SortIDs(out)
	return out
}

// IsMultiLeg reports whether c is an intern cell with two leg groups.
func (c *Cell) IsMultiLeg() bool {
	return c.Kind == Intern && c.Legs[0] != nil && c.Legs[1] != nil
}

// IsLegless reports whether c is an intern cell made of a single body joining
// two buses directly.
func (c *Cell) IsLegless() bool {
	return c.Kind == Intern && c.Legs[0] == nil && c.Body != nil
}

// Order returns the smallest feeder order hint of the cell.
func (c *Cell) Order(g *topology.Graph) (int, bool) {
	best, found := 0, false
	for _, f := range c.Feeders(g) {
		n := g.Node(f)
		if n.HasOrder && (!found || n.Order < best) {
			best, found = n.Order, true
		}
	}
	return best, found
}

// DirectionHint returns the direction hint of the first feeder (by name) that
// carries one.
func (c *Cell) DirectionHint(g *topology.Graph) topology.Direction {
	for _, f := range c.Feeders(g) {
		if d := g.Node(f).Direction; d != topology.DirectionUndefined {
			return d
		}
	}
	return topology.DirectionUndefined
}

// SetDirection sets the cell direction and the orientation of its vertical
// blocks. Spans are not affected.
func (c *Cell) SetDirection(d topology.Direction) {
	c.Direction = d
	o := block.FromDirection(d)
	switch {
	case c.Root == nil:
	case c.Kind == Shunt || c.Shape == ShapeFlat || c.IsLegless():
	case c.IsMultiLeg():
		block.SetOrientation(c.Legs[0], o)
		block.SetOrientation(c.Legs[1], o)
	default:
		block.SetOrientation(c.Root, o)
	}
}

// Occupancy returns the number of horizontal slots the cell takes next to its
// buses: the root span for extern, arch and one-leg cells, the legs for
// vertical and crossover cells.
func (c *Cell) Occupancy() int {
	if c.Root == nil {
		return 0
	}
	if c.IsMultiLeg() && c.Shape != ShapeFlat {
		return c.Legs[0].Pos().SpanH + c.Legs[1].Pos().SpanH
	}
	return c.Root.Pos().SpanH
}

// Set is the result of cell detection for one voltage level.
type Set struct {
	Cells []*Cell
}

// Get returns the cell with the given id, or nil.
func (s *Set) Get(id int) *Cell {
	if id < 0 || id >= len(s.Cells) {
		return nil
	}
	return s.Cells[id]
}

// ByKind returns the cells of kind k in id order.
func (s *Set) ByKind(k Kind) []*Cell {
	var out []*Cell
	for _, c := range s.Cells {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// SortByFullID sorts cells in place by their full id.
func SortByFullID(cells []*Cell) {
	slices.SortFunc(cells, func(a, b *Cell) int { return strings.Compare(a.fullID, b.fullID) })
}
