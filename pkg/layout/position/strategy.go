package position

import (
	"cmp"
	"slices"

	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Merge names two clusters to join and the side of each facing the seam.
type Merge struct {
	A, B         int
	SideA, SideB topology.Side
}

// MergeStrategy decides the order in which clusters are merged. Next is
// called until a single cluster remains or it reports false, in which case
// the remaining clusters are concatenated in order.
//
// Implementations must be deterministic: the same clusters and links must
// always give the same merge.
type MergeStrategy interface {
	Next(clusters []*Cluster, links *Links) (Merge, bool)
}

// Score weighs the links between two leg-bus sets. Fields are compared in
// declaration order.
type Score struct {
	Flat    int
	Buses   int
	Shunts  int
	Interns int
}

func (s Score) compare(o Score) int {
	return cmp.Or(
		cmp.Compare(s.Flat, o.Flat),
		cmp.Compare(s.Buses, o.Buses),
		cmp.Compare(s.Shunts, o.Shunts),
		cmp.Compare(s.Interns, o.Interns),
	)
}

func (s Score) add(o Score) Score {
	return Score{s.Flat + o.Flat, s.Buses + o.Buses, s.Shunts + o.Shunts, s.Interns + o.Interns}
}

// IsZero reports whether there is no link at all.
func (s Score) IsZero() bool { return s == Score{} }

// Links holds the electrical links between leg-bus sets.
type Links struct {
	g     *topology.Graph
	cells *cell.Set
	owner map[*cell.Cell]*LegBusSet
}

func newLinks(g *topology.Graph, s *cell.Set, sets []*LegBusSet) *Links {
	l := &Links{g: g, cells: s, owner: make(map[*cell.Cell]*LegBusSet)}
	for _, set := range sets {
		for _, c := range set.Cells {
			l.owner[c] = set
		}
	}
	return l
}

// Between scores the links between two leg-bus sets.
func (l *Links) Between(a, b *LegBusSet) Score {
	var s Score
	for _, bus := range a.Buses {
		if b.Contains(bus) {
			s.Buses++
		}
	}
	for _, leg := range a.Legs {
		if !slices.Contains(b.Legs, leg.Partner()) {
			continue
		}
		s.Interns++
		if flatCandidate(l.g, leg.Cell) {
			s.Flat++
		}
	}
	for _, c := range l.cells.ByKind(cell.Intern) {
		if !c.IsLegless() {
			continue
		}
		buses := c.Buses(l.g)
		if len(buses) == 2 && (a.Contains(buses[0]) && b.Contains(buses[1]) || a.Contains(buses[1]) && b.Contains(buses[0])) {
			s.Flat++
		}
	}
	for _, c := range l.cells.ByKind(cell.Shunt) {
		x, y := l.endOwner(c, 0), l.endOwner(c, 1)
		if x == a && y == b || x == b && y == a {
			s.Shunts++
		}
	}
	return s
}

func (l *Links) endOwner(c *cell.Cell, i int) *LegBusSet {
	return l.owner[l.cells.Get(l.g.Node(c.Ends[i]).Cell)]
}

// flatCandidate reports whether a multi-leg intern cell could be drawn flat:
// one bus per leg group and a plain chain body.
func flatCandidate(g *topology.Graph, c *cell.Cell) bool {
	if !c.IsMultiLeg() || len(c.LegBuses(g, 0)) != 1 || len(c.LegBuses(g, 1)) != 1 {
		return false
	}
	return isChain(c.Body)
}

var sidePairs = [4][2]topology.Side{
	{topology.SideRight, topology.SideLeft},
	{topology.SideRight, topology.SideRight},
	{topology.SideLeft, topology.SideLeft},
	{topology.SideLeft, topology.SideRight},
}

// Greedy merges, at each step, the two clusters whose facing edge sets have
// the highest link score. Ties go to the smallest cluster indices, then to
// the side pairs in the order right-left, right-right, left-left, left-right.
// When no edge sets are linked, the pair with the highest score over all
// their sets is appended right to left. Greedy stops when nothing is linked.
type Greedy struct{}

// Next implements MergeStrategy.
func (Greedy) Next(clusters []*Cluster, links *Links) (Merge, bool) {
	var best Merge
	var bestScore Score
	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			for _, sp := range sidePairs {
				s := links.Between(clusters[i].edge(sp[0]), clusters[j].edge(sp[1]))
				if s.compare(bestScore) > 0 {
					best, bestScore = Merge{A: i, B: j, SideA: sp[0], SideB: sp[1]}, s
				}
			}
		}
	}
	if !bestScore.IsZero() {
		return best, true
	}
	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			var s Score
			for _, a := range clusters[i].Sets {
				for _, b := range clusters[j].Sets {
					s = s.add(links.Between(a, b))
				}
			}
			if s.compare(bestScore) > 0 {
				best, bestScore = Merge{A: i, B: j, SideA: topology.SideRight, SideB: topology.SideLeft}, s
			}
		}
	}
	return best, !bestScore.IsZero()
}

// Hints orders clusters by the section index hints of their buses, then by
// the name of their first bus, and merges them left to right. It is used
// when every bus carries busbar and section indices.
type Hints struct {
	G *topology.Graph
}

// Next implements MergeStrategy.
func (h Hints) Next(clusters []*Cluster, _ *Links) (Merge, bool) {
	if len(clusters) < 2 {
		return Merge{}, false
	}
	idx := make([]int, len(clusters))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Or(
			cmp.Compare(h.section(clusters[a]), h.section(clusters[b])),
			cmp.Compare(h.G.Name(clusters[a].Sets[0].Buses[0]), h.G.Name(clusters[b].Sets[0].Buses[0])),
		)
	})
	return Merge{A: idx[0], B: idx[1], SideA: topology.SideRight, SideB: topology.SideLeft}, true
}

// section returns the smallest section index of the cluster's last set.
func (h Hints) section(c *Cluster) int {
	best := 0
	for _, b := range c.Sets[len(c.Sets)-1].Buses {
		if s := h.G.Node(b).SectionIndex; best == 0 || s < best {
			best = s
		}
	}
	return best
}

// hinted reports whether every bus of g carries busbar and section indices.
func hinted(g *topology.Graph) bool {
	buses := g.Buses()
	if len(buses) == 0 {
		return false
	}
	for _, b := range buses {
		if b.BusbarIndex <= 0 || b.SectionIndex <= 0 {
			return false
		}
	}
	return true
}
