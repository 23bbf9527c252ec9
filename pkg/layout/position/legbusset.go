package position

import (
	"cmp"
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Leg is one leg group of a multi-leg intern cell, identified by its index in
// cell.Legs.
type Leg struct {
	Cell  *cell.Cell
	Index int
}

// Partner returns the other leg group of the same cell.
func (l Leg) Partner() Leg { return Leg{Cell: l.Cell, Index: 1 - l.Index} }

// LegBusSet is a group of buses together with the cells hanging from them.
type LegBusSet struct {
	// Buses are sorted by name.
	Buses []topology.NodeID
	buses *set.Set[topology.NodeID]

	// Cells take slots inside the set: extern, one-leg intern and vertical
	// intern cells.
	Cells []*cell.Cell
	// Arches hang from shunt nodes of cells in this set.
	Arches []*cell.Cell
	// Shunts link two extern cells of this set.
	Shunts []*cell.Cell
	// Legs are leg groups of crossover or flat intern cells whose other leg
	// group lives in another set.
	Legs []Leg

	flats []*cell.Cell
	index int
}

func newLegBusSet(g *topology.Graph, buses []topology.NodeID) *LegBusSet {
	sorted := slices.Clone(buses)
	g.SortIDs(sorted)
	return &LegBusSet{Buses: sorted, buses: set.From(sorted)}
}

// Index returns the position of the set in the final cluster.
func (l *LegBusSet) Index() int { return l.index }

// Contains reports whether bus belongs to the set.
func (l *LegBusSet) Contains(bus topology.NodeID) bool { return l.buses.Contains(bus) }

// covers reports whether every bus of ids belongs to l.
func (l *LegBusSet) covers(ids []topology.NodeID) bool {
	for _, id := range ids {
		if !l.buses.Contains(id) {
			return false
		}
	}
	return true
}

// take moves the content of o into l.
func (l *LegBusSet) take(o *LegBusSet) {
	l.Cells = append(l.Cells, o.Cells...)
	l.Arches = append(l.Arches, o.Arches...)
	l.Shunts = append(l.Shunts, o.Shunts...)
	l.Legs = append(l.Legs, o.Legs...)
	l.flats = append(l.flats, o.flats...)
}

// absorb adds n to sets. If an existing set already contains n's buses it
// receives n's content; otherwise every set whose buses are contained in n's
// is folded into n, which takes the place of the first one folded. Sets stay
// pairwise non-nested.
func absorb(sets []*LegBusSet, n *LegBusSet) []*LegBusSet {
	for _, s := range sets {
		if s.buses.Subset(n.buses) {
			s.take(n)
			return sets
		}
	}
	pos := -1
	out := sets[:0]
	for _, s := range sets {
		if n.buses.Subset(s.buses) {
			n.take(s)
			if pos < 0 {
				pos = len(out)
			}
			continue
		}
		out = append(out, s)
	}
	if pos < 0 {
		return append(out, n)
	}
	return slices.Insert(out, pos, n)
}

// buildLegBusSets groups cells by buses. Extern cells and one-leg intern cells
// come first (each sorted by full id), then multi-leg intern cells by
// decreasing bus count, then one singleton set per bus nobody hangs from.
// Shunt and arch cells are attached to the sets of the extern cells they link.
func buildLegBusSets(g *topology.Graph, s *cell.Set) []*LegBusSet {
	var sets []*LegBusSet

	externs := s.ByKind(cell.Extern)
	cell.SortByFullID(externs)
	for _, c := range externs {
		n := newLegBusSet(g, c.Buses(g))
		n.Cells = append(n.Cells, c)
		sets = absorb(sets, n)
	}

	var oneLeg, multiLeg []*cell.Cell
	for _, c := range s.ByKind(cell.Intern) {
		switch {
		case c.IsMultiLeg():
			multiLeg = append(multiLeg, c)
		case !c.IsLegless():
			oneLeg = append(oneLeg, c)
		}
	}
	cell.SortByFullID(oneLeg)
	for _, c := range oneLeg {
		n := newLegBusSet(g, c.Buses(g))
		n.Cells = append(n.Cells, c)
		sets = absorb(sets, n)
	}

	cell.SortByFullID(multiLeg)
	slices.SortStableFunc(multiLeg, func(a, b *cell.Cell) int {
		return cmp.Compare(len(b.Buses(g)), len(a.Buses(g)))
	})
	for _, c := range multiLeg {
		buses := c.Buses(g)
		if i := slices.IndexFunc(sets, func(l *LegBusSet) bool { return l.covers(buses) }); i >= 0 {
			c.Shape = cell.ShapeVertical
			sets[i].Cells = append(sets[i].Cells, c)
			continue
		}
		for leg := range 2 {
			n := newLegBusSet(g, c.LegBuses(g, leg))
			n.Legs = append(n.Legs, Leg{Cell: c, Index: leg})
			sets = absorb(sets, n)
		}
	}

	for _, bus := range g.Buses() {
		if !slices.ContainsFunc(sets, func(l *LegBusSet) bool { return l.Contains(bus.ID) }) {
			sets = absorb(sets, newLegBusSet(g, []topology.NodeID{bus.ID}))
		}
	}

	owner := func(c *cell.Cell) *LegBusSet {
		i := slices.IndexFunc(sets, func(l *LegBusSet) bool { return slices.Contains(l.Cells, c) })
		if i < 0 {
			return nil
		}
		return sets[i]
	}
	for _, c := range s.ByKind(cell.Shunt) {
		a, b := owner(s.Get(g.Node(c.Ends[0]).Cell)), owner(s.Get(g.Node(c.Ends[1]).Cell))
		if a != nil && a == b {
			a.Shunts = append(a.Shunts, c)
		}
	}
	for _, c := range s.ByKind(cell.Arch) {
		if l := owner(s.Get(g.Node(c.Pivot).Cell)); l != nil {
			l.Arches = append(l.Arches, c)
		}
	}
	return sets
}

// locate returns the set holding leg l.
func locate(sets []*LegBusSet, l Leg) *LegBusSet {
	for _, s := range sets {
		if slices.Contains(s.Legs, l) {
			return s
		}
	}
	return nil
}
