package position

import (
	"slices"

	"github.com/matzehuels/singleline/pkg/topology"
)

// HorizontalBusSet is one busbar row of a cluster. Buses[i] is the bus drawn
// at leg-bus set Start+i of the cluster, or NoNode when the row is empty
// there. Start+len(Buses) always equals End.
type HorizontalBusSet struct {
	Buses      []topology.NodeID
	Start, End int
}

func (h *HorizontalBusSet) at(i int) topology.NodeID {
	if i < h.Start || i >= h.End {
		return topology.NoNode
	}
	return h.Buses[i-h.Start]
}

// first returns the first bus of the row, or NoNode.
func (h *HorizontalBusSet) first() topology.NodeID {
	for _, b := range h.Buses {
		if b != topology.NoNode {
			return b
		}
	}
	return topology.NoNode
}

// last returns the last bus of the row, or NoNode.
func (h *HorizontalBusSet) last() topology.NodeID {
	for i := len(h.Buses) - 1; i >= 0; i-- {
		if h.Buses[i] != topology.NoNode {
			return h.Buses[i]
		}
	}
	return topology.NoNode
}

// pad extends the row with placeholders so that it covers [start, end).
func (h *HorizontalBusSet) pad(start, end int) {
	if start < h.Start {
		h.Buses = append(make([]topology.NodeID, h.Start-start), h.Buses...)
		for i := range h.Start - start {
			h.Buses[i] = topology.NoNode
		}
		h.Start = start
	}
	for h.End < end {
		h.Buses = append(h.Buses, topology.NoNode)
		h.End++
	}
}

// Cluster is an ordered sequence of leg-bus sets with their busbar rows.
type Cluster struct {
	Sets []*LegBusSet
	Rows []*HorizontalBusSet
}

func newCluster(g *topology.Graph, l *LegBusSet) *Cluster {
	buses := slices.Clone(l.Buses)
	slices.SortStableFunc(buses, func(a, b topology.NodeID) int {
		return g.Node(a).BusbarIndex - g.Node(b).BusbarIndex
	})
	c := &Cluster{Sets: []*LegBusSet{l}}
	for _, b := range buses {
		c.Rows = append(c.Rows, &HorizontalBusSet{Buses: []topology.NodeID{b}, Start: 0, End: 1})
	}
	return c
}

// Len returns the number of leg-bus sets in the cluster.
func (c *Cluster) Len() int { return len(c.Sets) }

// edge returns the set at the given side of the cluster.
func (c *Cluster) edge(side topology.Side) *LegBusSet {
	if side == topology.SideLeft {
		return c.Sets[0]
	}
	return c.Sets[len(c.Sets)-1]
}

// reverse mirrors the cluster left to right.
func (c *Cluster) reverse() {
	slices.Reverse(c.Sets)
	n := len(c.Sets)
	for _, r := range c.Rows {
		slices.Reverse(r.Buses)
		r.Start, r.End = n-r.End, n-r.Start
	}
}

// Row returns the index of the row holding bus, or -1.
func (c *Cluster) Row(bus topology.NodeID) int {
	return slices.IndexFunc(c.Rows, func(r *HorizontalBusSet) bool { return slices.Contains(r.Buses, bus) })
}

// merge joins a and b into one cluster. sa is the side of a and sb the side
// of b that face each other; a is reversed when its left side faces b, b when
// its right side faces a. Rows of b continue the row of a carrying the same
// bus, else the row with the same busbar index hint, else the row with the
// same index, else start a new row.
func merge(g *topology.Graph, a, b *Cluster, sa, sb topology.Side) *Cluster {
	if sa == topology.SideLeft {
		a.reverse()
	}
	if sb == topology.SideRight {
		b.reverse()
	}
	offset := a.Len()
	total := offset + b.Len()
	out := &Cluster{Sets: append(slices.Clone(a.Sets), b.Sets...)}
	for _, r := range a.Rows {
		r.pad(0, total)
		out.Rows = append(out.Rows, r)
	}

	used := make([]bool, len(out.Rows))
	free := func(i int) bool {
		if i < 0 || i >= len(out.Rows) || used[i] {
			return false
		}
		// The row must be empty over the slots b brings.
		for j := offset; j < total; j++ {
			if out.Rows[i].at(j) != topology.NoNode {
				return false
			}
		}
		return true
	}
	for ri, r := range b.Rows {
		head := r.first()
		target := -1
		if i := slices.IndexFunc(out.Rows[:len(a.Rows)], func(x *HorizontalBusSet) bool { return x.last() == head }); free(i) {
			target = i
		}
		if target < 0 && g.Node(head).BusbarIndex > 0 {
			for i, x := range out.Rows[:len(a.Rows)] {
				if last := x.last(); last != topology.NoNode && g.Node(last).BusbarIndex == g.Node(head).BusbarIndex && free(i) {
					target = i
					break
				}
			}
		}
		if target < 0 && ri < len(a.Rows) && free(ri) {
			target = ri
		}
		if target < 0 {
			row := &HorizontalBusSet{Start: offset, End: offset}
			row.pad(0, total)
			out.Rows = append(out.Rows, row)
			used = append(used, false)
			target = len(out.Rows) - 1
		}
		used[target] = true
		dst := out.Rows[target]
		for j := r.Start; j < r.End; j++ {
			dst.Buses[offset+j] = r.Buses[j-r.Start]
		}
		fillGap(dst)
	}
	return out
}

// fillGap extends every bus of the row over the placeholders lying between
// two of its occurrences, so that each bus covers a contiguous range.
func fillGap(r *HorizontalBusSet) {
	for i, b := range r.Buses {
		if b == topology.NoNode {
			continue
		}
		j := slices.Index(r.Buses[i+1:], b)
		if j <= 0 {
			continue
		}
		gap := r.Buses[i+1 : i+1+j]
		if slices.ContainsFunc(gap, func(x topology.NodeID) bool { return x != topology.NoNode }) {
			continue
		}
		for k := range gap {
			gap[k] = b
		}
	}
}
