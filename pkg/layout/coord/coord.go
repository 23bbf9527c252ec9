package coord

import (
	"math"
	"slices"

	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Calculate sets the coordinates of every node of g and the Coord of every
// block of s, with the voltage level's top-left corner at the origin.
//
// Cells owning their nodes are laid out first; arch cells then start from
// their pivot and shunt cells are interpolated between their two ends. A node
// only ever receives coordinates from the cell it belongs to.
func Calculate(g *topology.Graph, s *cell.Set, res *position.Result, p params.Parameters) *Frame {
	f := newFrame(res, p, cellHeight(s, p))
	c := &calculator{g: g, f: f, p: p}

	ids := make([]topology.NodeID, 0, len(res.Buses))
	for id := range res.Buses {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		bp := res.Buses[id]
		seg := Segment{X1: f.SlotX(bp.Start), X2: f.SlotX(bp.End) - p.HorizontalBusPadding, Y: f.BusY(bp.Row)}
		f.Buses[id] = seg
		n := g.Node(id)
		n.X, n.Y = seg.X1, seg.Y
	}

	for _, x := range s.Cells {
		if x.Kind == cell.Intern || x.Kind == cell.Extern {
			c.cell(x)
		}
	}
	for _, x := range s.ByKind(cell.Arch) {
		c.cell(x)
	}
	for _, x := range s.ByKind(cell.Shunt) {
		c.cell(x)
	}
	return f
}

// cellHeight returns the extern cell height: the configured one, or one
// sized on the tallest extern or arch body when adapting to content.
func cellHeight(s *cell.Set, p params.Parameters) float64 {
	if !p.AdaptCellHeightToContent {
		return p.ExternCellHeight
	}
	units := 1
	for _, x := range s.Cells {
		if (x.Kind == cell.Extern || x.Kind == cell.Arch) && x.Root != nil {
			units = max(units, x.Root.Pos().SpanV-2)
		}
	}
	return float64(units) * 2 * p.MinSpaceBetweenComponents
}

type calculator struct {
	g *topology.Graph
	f *Frame
	p params.Parameters

	owner int
	// shift moves leg hooks one intern cell height away, for one-leg intern
	// cells.
	shift bool
}

func (c *calculator) cell(x *cell.Cell) {
	c.owner = x.ID
	c.shift = false
	switch {
	case x.Root == nil:
	case x.Kind == cell.Shunt:
		c.shunt(x)
	case x.Kind == cell.Arch:
		c.arch(x)
	case x.Shape == cell.ShapeFlat:
		c.flat(x)
	case x.IsLegless():
		c.upright(x)
	case x.IsMultiLeg():
		c.intern(x)
	case x.Kind == cell.Intern:
		c.shift = true
		c.vertical(x, c.p.StackHeight+c.p.InternCellHeight*float64(x.Root.Pos().SpanV))
	default:
		c.vertical(x, c.p.StackHeight+c.f.CellHeight)
	}
}

// set writes coordinates to a node of the current cell. Buses and nodes owned
// by other cells are left alone.
func (c *calculator) set(id topology.NodeID, x, y float64) {
	n := c.g.Node(id)
	if n == nil || n.IsBus() || n.Cell != c.owner {
		return
	}
	n.X, n.Y = x, y
}

func (c *calculator) busY(id topology.NodeID) float64 {
	if s, ok := c.f.Buses[id]; ok {
		return s.Y
	}
	return c.g.Node(id).Y
}

// column sets the X extent of cd to the slots of pos.
func (c *calculator) column(cd *block.Coord, pos *block.Position) {
	cd.X = c.f.SlotX(pos.H) + float64(pos.SpanH)*c.p.CellWidth/2
	cd.SpanX = float64(pos.SpanH) * c.p.CellWidth
}

// vertical lays out a cell hanging from the busbars over the given length.
func (c *calculator) vertical(x *cell.Cell, length float64) {
	root := x.Root
	sign := root.Pos().Orientation.Sign()
	edge := c.f.edge(x.Direction)
	cd := root.Coord()
	c.column(cd, root.Pos())
	cd.SpanY = length
	cd.Y = edge + sign*length/2
	c.visit(root)
}

// intern lays out a vertical or crossover intern cell: legs rise from their
// buses to the body, drawn horizontally at the cell level.
func (c *calculator) intern(x *cell.Cell) {
	o := block.FromDirection(x.Direction)
	edge := c.f.edge(x.Direction)
	bodyY := edge + o.Sign()*(c.p.StackHeight+float64(x.Level)*c.p.InternCellHeight)
	for _, leg := range x.Legs {
		cd := leg.Coord()
		c.column(cd, leg.Pos())
		cd.Y = (edge + bodyY) / 2
		cd.SpanY = math.Abs(bodyY - edge)
		c.visit(leg)
	}

	x1, x2 := x.Legs[0].Coord().X, x.Legs[1].Coord().X
	if x1 > x2 {
		block.SetOrientation(x.Body, block.Left)
	} else {
		block.SetOrientation(x.Body, block.Right)
	}
	cd := x.Body.Coord()
	cd.X, cd.SpanX = (x1+x2)/2, math.Abs(x2-x1)
	cd.Y, cd.SpanY = bodyY, float64(x.Body.Pos().SpanV-1)*2*c.p.MinSpaceBetweenComponents
	c.visit(x.Body)

	rc := x.Root.Coord()
	rc.X, rc.SpanX = cd.X, cd.SpanX
	rc.Y, rc.SpanY = (edge+bodyY)/2, math.Abs(bodyY-edge)
}

// flat lays the chain of a flat cell on its busbar row, over the slots
// between its two buses.
func (c *calculator) flat(x *cell.Cell) {
	var chain []topology.NodeID
	if x.IsMultiLeg() {
		l0, l1 := block.Legs(x.Legs[0])[0], block.Legs(x.Legs[1])[0]
		chain = append(chain, l0.Bus, l0.Connector)
		chain = append(chain, block.Nodes(x.Body)...)
		chain = append(chain, l1.Connector, l1.Bus)
	} else {
		chain = block.Nodes(x.Root)
	}
	first, last := chain[0], chain[len(chain)-1]
	if c.f.Buses[first].X1 > c.f.Buses[last].X1 {
		slices.Reverse(chain)
	}

	pos := x.Root.Pos()
	x1, x2 := c.f.SlotX(pos.H), c.f.SlotX(pos.H+pos.SpanH)
	y := c.busY(chain[0])
	interior := chain[1 : len(chain)-1]
	for i, id := range interior {
		c.set(id, x1+(x2-x1)*float64(i+1)/float64(len(interior)+1), y)
	}
	cd := x.Root.Coord()
	cd.X, cd.SpanX, cd.Y, cd.SpanY = (x1+x2)/2, x2-x1, y, 0
}

// upright lays out a bus-to-bus body joining two rows of the same slots.
func (c *calculator) upright(x *cell.Cell) {
	nodes := block.Nodes(x.Root)
	pos := x.Root.Pos()
	cx := c.f.SlotX(pos.H) + c.p.CellWidth/2
	y1, y2 := c.busY(nodes[0]), c.busY(nodes[len(nodes)-1])
	for i := 1; i < len(nodes)-1; i++ {
		c.set(nodes[i], cx, y1+(y2-y1)*float64(i)/float64(len(nodes)-1))
	}
	cd := x.Root.Coord()
	cd.X, cd.SpanX, cd.Y, cd.SpanY = cx, c.p.CellWidth, (y1+y2)/2, math.Abs(y2-y1)
}

// shunt interpolates the chain between the two shunt nodes at their mean Y.
func (c *calculator) shunt(x *cell.Cell) {
	nodes := block.Nodes(x.Root)
	if nodes[0] != x.Ends[0] {
		slices.Reverse(nodes)
	}
	a, b := c.g.Node(x.Ends[0]), c.g.Node(x.Ends[1])
	y := (a.Y + b.Y) / 2
	for i := 1; i < len(nodes)-1; i++ {
		t := float64(i) / float64(len(nodes)-1)
		c.set(nodes[i], a.X+(b.X-a.X)*t, y)
	}
	cd := x.Root.Coord()
	cd.X, cd.SpanX, cd.Y, cd.SpanY = (a.X+b.X)/2, math.Abs(b.X-a.X), y, 0
}

// arch lays out an arch cell in its own slots, from the height of its pivot
// to the far end of the extern cells.
func (c *calculator) arch(x *cell.Cell) {
	root := x.Root
	sign := root.Pos().Orientation.Sign()
	from := c.g.Node(x.Pivot).Y
	to := c.f.edge(x.Direction) + sign*(c.p.StackHeight+c.f.CellHeight)
	cd := root.Coord()
	c.column(cd, root.Pos())
	cd.Y, cd.SpanY = (from+to)/2, math.Abs(to-from)
	c.visit(root)
}

// ends returns the start and end of cd along the axis of o.
func ends(cd *block.Coord, o block.Orientation) (float64, float64) {
	sign := o.Sign()
	if o.IsVertical() {
		return cd.Y - sign*cd.SpanY/2, cd.Y + sign*cd.SpanY/2
	}
	return cd.X - sign*cd.SpanX/2, cd.X + sign*cd.SpanX/2
}

// setAt places id on the axis of cd, at coordinate t along the axis of o.
func (c *calculator) setAt(id topology.NodeID, cd *block.Coord, o block.Orientation, t float64) {
	if o.IsVertical() {
		c.set(id, cd.X, t)
		return
	}
	c.set(id, t, cd.Y)
}

func (c *calculator) visit(b block.Block) {
	cd := b.Coord()
	o := b.Pos().Orientation
	start, end := ends(cd, o)
	switch b := b.(type) {
	case *block.LegPrimary:
		if o.IsVertical() {
			c.set(b.Connector, cd.X, c.busY(b.Bus))
		} else {
			c.setAt(b.Connector, cd, o, (start+end)/2)
		}
		c.setAt(b.Hook, cd, o, end)
	case *block.FeederPrimary:
		c.setAt(b.Hook, cd, o, start)
		c.setAt(b.Feeder, cd, o, start+o.Sign()*c.p.FeederSpan())
	case *block.BodyPrimary:
		c.body(b, start, end)
	case *block.Serial:
		c.serial(b)
	case *block.BodyParallel:
		c.parallel(b, b.Children)
	case *block.LegParallel:
		if b.Stacked {
			for _, leg := range b.Children {
				*leg.Coord() = *cd
				c.visit(leg)
			}
			return
		}
		c.parallel(b, block.Children(b))
	case *block.Undefined:
		c.parallel(b, b.Children)
	}
}

// body spreads the nodes of a chain evenly from start to end, with an extra
// half step before a switch next to a three-winding transformer middle.
func (c *calculator) body(b *block.BodyPrimary, start, end float64) {
	cd := b.Coord()
	o := b.Pos().Orientation
	offsets := make([]float64, len(b.Nodes))
	total := 0.0
	for i := 1; i < len(b.Nodes); i++ {
		total++
		if c.nextTo3WT(b.Nodes[i]) {
			total += 0.5
		}
		offsets[i] = total
	}
	for i, id := range b.Nodes {
		t := start
		if total > 0 {
			t = start + (end-start)*offsets[i]/total
		}
		c.setAt(id, cd, o, t)
	}
}

func (c *calculator) nextTo3WT(id topology.NodeID) bool {
	if c.g.Node(id).Kind != topology.KindSwitch {
		return false
	}
	return slices.ContainsFunc(c.g.Adjacent(id), func(nb topology.NodeID) bool {
		return c.g.Node(nb).Kind == topology.KindMiddle3WT
	})
}

// serial distributes the parent extent along the orientation axis over the
// children, in proportion to their spans. A leading vertical leg gets the
// stack height and a feeder gets no length, its node being drawn one feeder
// span beyond the end.
func (c *calculator) serial(b *block.Serial) {
	cd := b.Coord()
	o := b.Pos().Orientation
	start, end := ends(cd, o)
	sign := o.Sign()

	fixed := make([]float64, len(b.Children))
	isFixed := make([]bool, len(b.Children))
	reserved, units := 0.0, 0
	for i, ch := range b.Children {
		switch {
		case i == 0 && o.IsVertical() && block.IsLeg(ch):
			fixed[i], isFixed[i] = c.legLength(), true
			reserved += fixed[i]
		case isFeeder(ch):
			isFixed[i] = true
		default:
			units += along(ch.Pos(), o)
		}
	}
	step := 0.0
	if units > 0 {
		step = max(math.Abs(end-start)-reserved, 0) / float64(units)
	}

	t := start
	for i, ch := range b.Children {
		l := fixed[i]
		if !isFixed[i] {
			l = float64(along(ch.Pos(), o)) * step
		}
		chd := ch.Coord()
		if o.IsVertical() {
			chd.X, chd.SpanX = cd.X, float64(ch.Pos().SpanH)*c.p.CellWidth
			chd.Y, chd.SpanY = t+sign*l/2, l
		} else {
			chd.Y, chd.SpanY = cd.Y, cd.SpanY
			chd.X, chd.SpanX = t+sign*l/2, l
		}
		t += sign * l
		c.visit(ch)
	}
}

func (c *calculator) legLength() float64 {
	if c.shift {
		return c.p.StackHeight + c.p.InternCellHeight
	}
	return c.p.StackHeight
}

func isFeeder(b block.Block) bool {
	_, ok := b.(*block.FeederPrimary)
	return ok
}

// along returns the span of pos along the axis of o.
func along(pos *block.Position, o block.Orientation) int {
	if o.IsVertical() {
		return pos.SpanV
	}
	return pos.SpanH
}

// parallel distributes the parent extent across the orientation axis over
// the children, in proportion to their spans, each child keeping the full
// extent along the axis. Shared start and end nodes go to the parent center.
func (c *calculator) parallel(b block.Block, children []block.Block) {
	cd := b.Coord()
	o := b.Pos().Orientation
	vertical := o.IsVertical()
	if _, ok := b.(*block.Undefined); ok {
		vertical = true
	}

	units := 0
	for _, ch := range children {
		if vertical {
			units += ch.Pos().SpanH
		} else {
			units += ch.Pos().SpanV
		}
	}
	width := cd.SpanY
	if vertical {
		width = cd.SpanX
	}
	step := 0.0
	if units > 0 {
		step = width / float64(units)
	}

	t := -width / 2
	for _, ch := range children {
		chd := ch.Coord()
		if vertical {
			l := float64(ch.Pos().SpanH) * step
			chd.X, chd.SpanX = cd.X+t+l/2, l
			chd.Y, chd.SpanY = cd.Y, cd.SpanY
			t += l
		} else {
			l := float64(ch.Pos().SpanV) * step
			chd.Y, chd.SpanY = cd.Y+t+l/2, l
			chd.X, chd.SpanX = cd.X, cd.SpanX
			t += l
		}
		c.visit(ch)
	}

	start, end := ends(cd, o)
	if id := b.Start(); id != topology.NoNode {
		c.setAt(id, cd, o, start)
	}
	if id := b.End(); id != topology.NoNode {
		c.setAt(id, cd, o, end)
	}
}
