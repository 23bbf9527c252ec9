package position

import (
	"cmp"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/topology"
)

// BusPosition is the grid location of a bus: its busbar row (1 at the top)
// and the slot range [Start, End) it spans.
type BusPosition struct {
	Row        int
	Start, End int
}

// Subsection is a run of consecutive leg-bus sets drawing the same busbar
// rows. Extern cell directions alternate inside a subsection.
type Subsection struct {
	// Start and End delimit the leg-bus set indices [Start, End).
	Start, End int
	// Rows tells, for each busbar row, whether the subsection draws a bus on it.
	Rows []bool
	// Cells are the extern and arch cells of the subsection in slot order.
	Cells     []*cell.Cell
	Direction topology.Direction
}

// Result holds the grid positions of one voltage level. Block positions are
// stored in the block trees of the cells themselves.
type Result struct {
	Cluster     *Cluster
	Buses       map[topology.NodeID]BusPosition
	Subsections []*Subsection
	// Rows is the number of busbar rows.
	Rows int
	// MaxBusPosition is the number of horizontal slots.
	MaxBusPosition int
	// Levels is the number of intern body levels drawn above (Top) and below
	// (Bottom) the busbars.
	Levels map[topology.Direction]int

	slots []slot
}

// slot is a range of horizontal positions taken by one cell or leg group.
// A flat cell only takes its range on its busbar row; row is -1 for slots
// taken across all rows.
type slot struct {
	owner      string
	row        int
	start, end int
}

// Finder computes positions. The zero value uses the [Hints] strategy when
// every bus carries busbar and section indices and [Greedy] otherwise, and
// logs nothing.
type Finder struct {
	Strategy MergeStrategy
	Logger   *log.Logger
}

func (f *Finder) logger() *log.Logger {
	if f.Logger == nil {
		return log.New(io.Discard)
	}
	return f.Logger
}

func (f *Finder) strategy(g *topology.Graph) MergeStrategy {
	switch {
	case f.Strategy != nil:
		return f.Strategy
	case hinted(g):
		return Hints{G: g}
	default:
		return Greedy{}
	}
}

// Find positions every bus and cell of s. Cells must have been decomposed.
// Cell shapes, sides, levels and directions are set as a side effect.
func (f *Finder) Find(g *topology.Graph, s *cell.Set) (*Result, error) {
	sets := buildLegBusSets(g, s)
	res := &Result{
		Buses:  make(map[topology.NodeID]BusPosition),
		Levels: make(map[topology.Direction]int),
	}
	if len(sets) == 0 {
		res.Cluster = &Cluster{}
		return res, nil
	}

	res.Cluster = f.cluster(g, s, sets)
	for i, l := range res.Cluster.Sets {
		l.index = i
	}
	res.Rows = len(res.Cluster.Rows)
	f.resolveShapes(g, s, res.Cluster)

	w := &walker{g: g, res: res}
	w.walk()
	w.subsections()
	directions(g, s, res.Subsections)
	w.levels(s)
	w.place()

	f.logger().Debug("positions found", "vl", g.ID(), "sets", len(res.Cluster.Sets), "rows", res.Rows, "slots", res.MaxBusPosition)
	return res, res.Check()
}

func (f *Finder) cluster(g *topology.Graph, s *cell.Set, sets []*LegBusSet) *Cluster {
	links := newLinks(g, s, sets)
	clusters := make([]*Cluster, len(sets))
	for i, l := range sets {
		clusters[i] = newCluster(g, l)
	}
	strategy := f.strategy(g)
	for len(clusters) > 1 {
		m, ok := strategy.Next(clusters, links)
		if !ok {
			break
		}
		merged := merge(g, clusters[m.A], clusters[m.B], m.SideA, m.SideB)
		clusters[m.A] = merged
		clusters = slices.Delete(clusters, m.B, m.B+1)
	}
	out := clusters[0]
	for _, c := range clusters[1:] {
		out = merge(g, out, c, topology.SideRight, topology.SideLeft)
	}
	return out
}

// resolveShapes decides the shape of every intern cell that is not yet
// vertical and sets the sides of leg groups.
func (f *Finder) resolveShapes(g *topology.Graph, s *cell.Set, c *Cluster) {
	seen := make(map[*cell.Cell]bool)
	for _, l := range c.Sets {
		// Vertical and flat cells leave the leg lists while they are walked.
		for _, leg := range slices.Clone(l.Legs) {
			ic := leg.Cell
			if seen[ic] {
				continue
			}
			seen[ic] = true
			a, b := locate(c.Sets, Leg{ic, 0}), locate(c.Sets, Leg{ic, 1})
			if a == b {
				ic.Shape = cell.ShapeVertical
				a.Legs = slices.DeleteFunc(a.Legs, func(x Leg) bool { return x.Cell == ic })
				a.Cells = append(a.Cells, ic)
				continue
			}
			ic.Sides = [2]topology.Side{topology.SideRight, topology.SideLeft}
			if a.index < b.index {
				ic.Sides = [2]topology.Side{topology.SideLeft, topology.SideRight}
			}
			ic.Shape = cell.ShapeCrossover
			if flatCandidate(g, ic) && abs(a.index-b.index) == 1 &&
				c.Row(ic.LegBuses(g, 0)[0]) == c.Row(ic.LegBuses(g, 1)[0]) {
				ic.Shape = cell.ShapeFlat
				a.Legs = slices.DeleteFunc(a.Legs, func(x Leg) bool { return x.Cell == ic })
				b.Legs = slices.DeleteFunc(b.Legs, func(x Leg) bool { return x.Cell == ic })
				left := a
				if b.index < a.index {
					left = b
				}
				left.flats = append(left.flats, ic)
			}
		}
	}

	for _, ic := range s.ByKind(cell.Intern) {
		if !ic.IsLegless() {
			continue
		}
		buses := ic.Buses(g)
		ia := slices.IndexFunc(c.Sets, func(l *LegBusSet) bool { return l.Contains(buses[0]) })
		ib := slices.IndexFunc(c.Sets, func(l *LegBusSet) bool { return l.Contains(buses[len(buses)-1]) })
		if ia == ib {
			// Both buses in one set: draw the body upright in its own slot.
			ic.Shape = cell.ShapeVertical
			block.SetOrientation(ic.Root, block.Up)
			block.Size(ic.Root)
			c.Sets[ia].Cells = append(c.Sets[ia].Cells, ic)
			continue
		}
		if abs(ia-ib) != 1 || c.Row(buses[0]) != c.Row(buses[len(buses)-1]) {
			f.logger().Debug("flat cell between non-facing buses", "vl", g.ID(), "cell", ic.FullID())
		}
		c.Sets[min(ia, ib)].flats = append(c.Sets[min(ia, ib)].flats, ic)
	}
}

// isChain reports whether b contains no parallel or undefined block.
func isChain(b block.Block) bool {
	chain := true
	block.Walk(b, func(x block.Block) {
		switch x.(type) {
		case *block.BodyParallel, *block.LegParallel, *block.Undefined:
			chain = false
		}
	})
	return chain
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// walker hands out horizontal slots.
type walker struct {
	g   *topology.Graph
	res *Result

	startH, endH []int
	contents     [][]*cell.Cell
	cellH        map[*cell.Cell]int
	legH         map[Leg]int
	flatRow      map[*cell.Cell]int
	order        []*cell.Cell
}

func (w *walker) walk() {
	sets := w.res.Cluster.Sets
	w.startH = make([]int, len(sets))
	w.endH = make([]int, len(sets))
	w.contents = make([][]*cell.Cell, len(sets))
	w.cellH = make(map[*cell.Cell]int)
	w.legH = make(map[Leg]int)
	w.flatRow = make(map[*cell.Cell]int)

	h := 0
	for k, l := range sets {
		w.startH[k] = h
		h = w.legs(l, topology.SideRight, h)
		w.contents[k] = w.content(l)
		for _, c := range w.contents[k] {
			w.cellH[c] = h
			w.order = append(w.order, c)
			h += c.Occupancy()
		}
		h = w.legs(l, topology.SideLeft, h)
		if h == w.startH[k] {
			h++
		}
		w.endH[k] = h
		h = w.flats(l, h)
	}
	w.res.MaxBusPosition = h

	for r, row := range w.res.Cluster.Rows {
		for i, bus := range row.Buses {
			if bus == topology.NoNode {
				continue
			}
			k := row.Start + i
			bp, ok := w.res.Buses[bus]
			if !ok {
				bp = BusPosition{Row: r + 1, Start: w.startH[k]}
			}
			bp.End = w.endH[k]
			w.res.Buses[bus] = bp
		}
	}
}

// flats places the flat cells following l from slot h. Flat cells on
// different busbar rows share the same slots. It returns the first slot
// after them.
func (w *walker) flats(l *LegBusSet, h int) int {
	flats := slices.Clone(l.flats)
	cell.SortByFullID(flats)
	next := make(map[int]int)
	end := h
	for _, c := range flats {
		row := w.res.Cluster.Row(c.Buses(w.g)[0])
		at, ok := next[row]
		if !ok {
			at = h
		}
		w.cellH[c] = at
		w.flatRow[c] = row
		w.order = append(w.order, c)
		next[row] = at + c.Occupancy()
		end = max(end, next[row])
	}
	return end
}

// legs places the leg groups of l on the given side, the leg whose partner
// is farthest first so that bodies nest.
func (w *walker) legs(l *LegBusSet, side topology.Side, h int) int {
	var legs []Leg
	for _, leg := range l.Legs {
		if leg.Cell.Sides[leg.Index] == side {
			legs = append(legs, leg)
		}
	}
	partner := func(x Leg) int { return locate(w.res.Cluster.Sets, x.Partner()).index }
	slices.SortFunc(legs, func(a, b Leg) int {
		return cmp.Or(cmp.Compare(partner(b), partner(a)), strings.Compare(a.Cell.FullID(), b.Cell.FullID()))
	})
	for _, leg := range legs {
		w.legH[leg] = h
		h += leg.Cell.Legs[leg.Index].Pos().SpanH
	}
	return h
}

// content returns the slot-taking cells of l in slot order: sorted by feeder
// order hint then full id, cells linked by a shunt side by side, arches right
// after the cell they hang from.
func (w *walker) content(l *LegBusSet) []*cell.Cell {
	cells := slices.Clone(l.Cells)
	key := func(c *cell.Cell) int {
		if o, ok := c.Order(w.g); ok {
			return o
		}
		return math.MaxInt
	}
	slices.SortFunc(cells, func(a, b *cell.Cell) int {
		return cmp.Or(cmp.Compare(key(a), key(b)), strings.Compare(a.FullID(), b.FullID()))
	})

	shunts := slices.Clone(l.Shunts)
	cell.SortByFullID(shunts)
	for _, sh := range shunts {
		a := slices.IndexFunc(cells, func(c *cell.Cell) bool { return c.ID == w.g.Node(sh.Ends[0]).Cell })
		b := slices.IndexFunc(cells, func(c *cell.Cell) bool { return c.ID == w.g.Node(sh.Ends[1]).Cell })
		if a < 0 || b < 0 || abs(a-b) == 1 {
			continue
		}
		if a > b {
			a, b = b, a
		}
		moved := cells[b]
		cells = slices.Delete(cells, b, b+1)
		cells = slices.Insert(cells, a+1, moved)
	}

	arches := slices.Clone(l.Arches)
	cell.SortByFullID(arches)
	slices.Reverse(arches)
	for _, ar := range arches {
		i := slices.IndexFunc(cells, func(c *cell.Cell) bool { return c.ID == w.g.Node(ar.Pivot).Cell })
		cells = slices.Insert(cells, i+1, ar)
	}
	return cells
}

// place writes grid positions into the block trees.
func (w *walker) place() {
	for _, l := range w.res.Cluster.Sets {
		for _, leg := range l.Legs {
			block.Place(leg.Cell.Legs[leg.Index], w.legH[leg], 0)
		}
	}
	for c, h := range w.cellH {
		switch {
		case c.IsMultiLeg() && c.Shape == cell.ShapeVertical:
			block.Place(c.Legs[0], h, 0)
			block.Place(c.Legs[1], h+c.Legs[0].Pos().SpanH, 0)
			block.Place(c.Body, h, c.Level)
			p := c.Root.Pos()
			p.H, p.V = h, 0
		default:
			block.Place(c.Root, h, 0)
		}
	}
	for _, l := range w.res.Cluster.Sets {
		for _, leg := range l.Legs {
			if leg.Index != 0 {
				continue
			}
			c := leg.Cell
			lo := min(c.Legs[0].Pos().H, c.Legs[1].Pos().H)
			block.Place(c.Body, lo, c.Level)
			p := c.Root.Pos()
			p.H, p.V = lo, 0
		}
	}

	for _, c := range w.order {
		row, ok := w.flatRow[c]
		if !ok {
			row = -1
		}
		w.res.slots = append(w.res.slots, slot{c.FullID(), row, w.cellH[c], w.cellH[c] + c.Occupancy()})
	}
	for leg, h := range w.legH {
		w.res.slots = append(w.res.slots, slot{leg.Cell.FullID(), -1, h, h + leg.Cell.Legs[leg.Index].Pos().SpanH})
	}
	slices.SortFunc(w.res.slots, func(a, b slot) int {
		return cmp.Or(cmp.Compare(a.start, b.start), cmp.Compare(a.row, b.row), strings.Compare(a.owner, b.owner))
	})
}

// subsections cuts the cluster where the set of drawn rows changes.
func (w *walker) subsections() {
	c := w.res.Cluster
	rowsAt := func(k int) []bool {
		out := make([]bool, len(c.Rows))
		for i, row := range c.Rows {
			out[i] = row.at(k) != topology.NoNode
		}
		return out
	}
	var cur *Subsection
	for k := range c.Sets {
		rows := rowsAt(k)
		if cur == nil || !slices.Equal(cur.Rows, rows) {
			cur = &Subsection{Start: k, End: k, Rows: rows, Direction: topology.DirectionTop}
			w.res.Subsections = append(w.res.Subsections, cur)
		}
		cur.End = k + 1
		for _, x := range w.contents[k] {
			if x.Kind == cell.Extern || x.Kind == cell.Arch {
				cur.Cells = append(cur.Cells, x)
			}
		}
	}
}

// directions sets cell directions. Extern cells follow their feeder hint or
// alternate top and bottom inside their subsection; cells linked by shunts
// take the direction of the lowest id among them; arches follow their pivot's
// cell; intern cells go on top.
func directions(g *topology.Graph, s *cell.Set, subsections []*Subsection) {
	for _, sub := range subsections {
		n := 0
		for _, c := range sub.Cells {
			if c.Kind != cell.Extern {
				continue
			}
			d := c.DirectionHint(g)
			if d == topology.DirectionUndefined {
				d = topology.DirectionTop
				if n%2 == 1 {
					d = topology.DirectionBottom
				}
			}
			n++
			c.SetDirection(d)
		}
		if len(sub.Cells) > 0 {
			sub.Direction = sub.Cells[0].Direction
		}
	}

	// Shunt-linked groups, by union of cell ids.
	parent := make([]int, len(s.Cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for _, sh := range s.ByKind(cell.Shunt) {
		a, b := find(g.Node(sh.Ends[0]).Cell), find(g.Node(sh.Ends[1]).Cell)
		parent[max(a, b)] = min(a, b)
	}
	for _, c := range s.ByKind(cell.Extern) {
		if root := find(c.ID); root != c.ID {
			c.SetDirection(s.Get(root).Direction)
		}
	}
	for _, c := range s.ByKind(cell.Shunt) {
		c.SetDirection(s.Get(g.Node(c.Ends[0]).Cell).Direction)
	}
	for _, c := range s.ByKind(cell.Arch) {
		c.SetDirection(s.Get(g.Node(c.Pivot).Cell).Direction)
	}
	for _, c := range s.ByKind(cell.Intern) {
		if c.Shape == cell.ShapeFlat || c.IsLegless() {
			continue
		}
		c.SetDirection(topology.DirectionTop)
	}
}

// levels stacks the bodies of vertical and crossover intern cells: shorter
// bodies sit closer to the busbars and overlapping bodies get distinct levels.
func (w *walker) levels(s *cell.Set) {
	type span struct {
		c      *cell.Cell
		lo, hi int
	}
	var spans []span
	for _, c := range s.ByKind(cell.Intern) {
		if !c.IsMultiLeg() {
			continue
		}
		switch c.Shape {
		case cell.ShapeVertical:
			h := w.cellH[c]
			spans = append(spans, span{c, h, h + c.Occupancy() - 1})
		case cell.ShapeCrossover:
			a, b := w.legH[Leg{c, 0}], w.legH[Leg{c, 1}]
			lo, hi := min(a, b), max(a, b)
			spans = append(spans, span{c, lo, hi + c.Legs[0].Pos().SpanH - 1})
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Or(cmp.Compare(a.hi-a.lo, b.hi-b.lo), cmp.Compare(a.lo, b.lo), strings.Compare(a.c.FullID(), b.c.FullID()))
	})
	var done []span
	for _, sp := range spans {
		level := 1
		for _, o := range done {
			if o.c.Direction == sp.c.Direction && o.lo <= sp.hi && sp.lo <= o.hi {
				level = max(level, o.c.Level+1)
			}
		}
		sp.c.Level = level
		w.res.Levels[sp.c.Direction] = max(w.res.Levels[sp.c.Direction], level)
		done = append(done, sp)
	}
}

// Check verifies that slot-taking cells and leg groups neither overlap nor
// exceed MaxBusPosition. Flat cells on different busbar rows may share slots.
func (r *Result) Check() error {
	all, last := 0, 0 // ends of the last all-rows slot and of any slot
	rowEnd := make(map[int]int)
	for _, s := range r.slots {
		end := last
		if s.row >= 0 {
			end = max(all, rowEnd[s.row])
		}
		if s.start < end || s.end > r.MaxBusPosition {
			return errors.New(errors.ErrCodeStructural, "%s takes slots [%d,%d) of %d, overlapping up to %d", s.owner, s.start, s.end, r.MaxBusPosition, end)
		}
		if s.row >= 0 {
			rowEnd[s.row] = s.end
		} else {
			all = s.end
		}
		last = max(last, s.end)
	}
	return nil
}
