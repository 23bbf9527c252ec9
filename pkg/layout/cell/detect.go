package cell

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-set/v3"

	"github.com/matzehuels/singleline/pkg/topology"
)

type nodeSet = *set.Set[topology.NodeID]

// Detect partitions a refined voltage-level graph into cells. Node.Cell and
// Node.Shunt are updated as a side effect.
//
// Intern cells are found first: regions reachable from a bus without meeting
// a feeder. The remaining regions are split into extern, shunt and arch cells
// with an explicit worklist. Cell ids follow creation order, and every
// traversal starts from name-sorted buses and neighbors so that the result
// depends only on the graph.
func Detect(g *topology.Graph, logger *log.Logger) *Set {
	d := &detector{g: g, logger: logger, allocated: set.New[topology.NodeID](g.NodeCount())}
	d.detectIntern()
	d.detectExtern()
	return &Set{Cells: d.cells}
}

type detector struct {
	g         *topology.Graph
	logger    *log.Logger
	allocated nodeSet
	cells     []*Cell
}

func (d *detector) notAllocated(id topology.NodeID) bool { return !d.allocated.Contains(id) }

func isBus(n *topology.Node) bool { return n.IsBus() }
func isBusOrFeeder(n *topology.Node) bool { return n.IsBus() || n.IsFeeder() }
func never(*topology.Node) bool { return false }
func isTerminal(n *topology.Node) bool { return n.IsBus() || n.IsFeeder() || n.Shunt }
func isFeeder(n *topology.Node) bool { return n.IsFeeder() }
func inSet(s nodeSet) func(topology.NodeID) bool {
	return func(id topology.NodeID) bool { return s.Contains(id) }
}

// explore adds to visited every node reachable from start through allowed
// nodes, without expanding past stop nodes. It reports false as soon as a fail
// node is reached.
func explore(g *topology.Graph, start topology.NodeID, visited nodeSet, allowed func(topology.NodeID) bool, stop, fail func(*topology.Node) bool) bool {
	stack := []topology.NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(id) {
			continue
		}
		n := g.Node(id)
		if fail(n) {
			return false
		}
		visited.Insert(id)
		if stop(n) {
			continue
		}
		for _, nb := range g.Adjacent(id) {
			if !visited.Contains(nb) && allowed(nb) {
				stack = append(stack, nb)
			}
		}
	}
	return true
}

func (d *detector) detectIntern() {
	for _, bus := range d.g.Buses() {
		for _, nb := range d.g.AdjacentByName(bus.ID) {
			if d.allocated.Contains(nb) || d.g.Node(nb).IsBus() {
				continue
			}
			visited := set.From([]topology.NodeID{bus.ID})
			if !explore(d.g, nb, visited, d.notAllocated, isBus, isFeeder) {
				continue
			}
			c := d.newCell(Intern, visited.Slice())
			d.logger.Debug("intern cell", "vl", d.g.ID(), "cell", c.FullID())
		}
	}
}

func (d *detector) detectExtern() {
	for _, bus := range d.g.Buses() {
		for _, nb := range d.g.AdjacentByName(bus.ID) {
			if d.allocated.Contains(nb) || d.g.Node(nb).IsBus() {
				continue
			}
			visited := set.From([]topology.NodeID{bus.ID})
			explore(d.g, nb, visited, d.notAllocated, isBusOrFeeder, never)
			for _, id := range visited.Slice() {
				if !d.g.Node(id).IsBus() {
					d.allocated.Insert(id)
				}
			}
			d.resolve(visited)
		}
	}
}

// resolve splits one bus-to-feeder region into extern, shunt and arch cells.
func (d *detector) resolve(region nodeSet) {
	work := []nodeSet{region}
	for len(work) > 0 {
		s := work[0]
		work = work[1:]

		d.prune(s)
		d.extractArches(s)
		d.prune(s)
		if !d.hasContent(s) {
			continue
		}
		if d.isPureExtern(s) {
			d.newCell(Extern, s.Slice())
			continue
		}
		pivot, branches, ok := d.shuntCandidate(s)
		if !ok {
			c := d.newCell(Extern, s.Slice())
			d.logger.Debug("unresolved extern region", "vl", d.g.ID(), "cell", c.FullID())
			continue
		}
		work = append(work, d.split(pivot, branches)...)
	}
}

// split marks pivot as a shunt node and cuts the region around it: bus and
// feeder branches form an extern cell with the pivot, every other branch is
// cut after its first chain, which becomes a shunt cell. The rest of each
// such branch is returned for further processing.
func (d *detector) split(pivot topology.NodeID, branches []branch) []nodeSet {
	d.g.Node(pivot).Shunt = true
	ext := []topology.NodeID{pivot}
	for _, b := range branches {
		if b.pol == polBus || b.pol == polFeeder || b.pol == polEmpty {
			ext = append(ext, b.nodes.Slice()...)
		}
	}
	d.newCell(Extern, ext)

	var rest []nodeSet
	for _, b := range branches {
		if b.pol != polMixed && b.pol != polShunt {
			continue
		}
		chain, end, _ := d.walkChain(b.nodes, pivot, b.first)
		nodes := append([]topology.NodeID{pivot}, chain...)
		nodes = append(nodes, end)
		c := d.newCell(Shunt, nodes)
		c.Ends = [2]topology.NodeID{pivot, end}
		d.g.Node(end).Shunt = true
		d.logger.Debug("shunt cell", "vl", d.g.ID(), "cell", c.FullID())

		remaining := b.nodes.Copy()
		for _, id := range chain {
			remaining.Remove(id)
		}
		rest = append(rest, remaining)
	}
	return rest
}

// prune removes buses and shunt nodes left without any neighbor in s.
func (d *detector) prune(s nodeSet) {
	for _, id := range s.Slice() {
		n := d.g.Node(id)
		if !n.IsBus() && !n.Shunt {
			continue
		}
		if d.degreeIn(s, id) == 0 {
			s.Remove(id)
		}
	}
}

func (d *detector) hasContent(s nodeSet) bool {
	for _, id := range s.Slice() {
		if n := d.g.Node(id); !n.IsBus() && !n.Shunt {
			return true
		}
	}
	return false
}

// extractArches gives every feeder-only branch of a shunt node without any
// bus-only branch to an arch cell pivoted on that node.
func (d *detector) extractArches(s nodeSet) {
	for _, p := range d.sortedByName(s) {
		if !d.g.Node(p).Shunt {
			continue
		}
		branches := d.branches(s, p)
		if slices.ContainsFunc(branches, func(b branch) bool { return b.pol == polBus }) {
			continue
		}
		for _, b := range branches {
			if b.pol != polFeeder {
				continue
			}
			c := d.newCell(Arch, append([]topology.NodeID{p}, b.nodes.Slice()...))
			c.Pivot = p
			d.logger.Debug("arch cell", "vl", d.g.ID(), "cell", c.FullID())
			for _, id := range b.nodes.Slice() {
				s.Remove(id)
			}
		}
	}
}

// isPureExtern reports whether some node of s splits it into bus-only and
// feeder-only branches, with at least one of each.
func (d *detector) isPureExtern(s nodeSet) bool {
	for _, id := range d.sortedByName(s) {
		if isBusOrFeeder(d.g.Node(id)) {
			continue
		}
		branches := d.branches(s, id)
		if len(branches) < 2 {
			continue
		}
		var buses, feeders int
		pure := true
		for _, b := range branches {
			switch b.pol {
			case polBus:
				buses++
			case polFeeder:
				feeders++
			case polMixed, polShunt:
				pure = false
			}
		}
		if pure && buses > 0 && feeders > 0 {
			return true
		}
	}
	return false
}

// shuntCandidate returns the first node by name with degree at least three
// having a bus-only branch, a feeder-only branch and a mixed or
// shunt-terminated branch whose first chain can be cut.
func (d *detector) shuntCandidate(s nodeSet) (topology.NodeID, []branch, bool) {
	for _, id := range d.sortedByName(s) {
		n := d.g.Node(id)
		if isBusOrFeeder(n) || n.Shunt || d.degreeIn(s, id) < 3 {
			continue
		}
		branches := d.branches(s, id)
		var buses, feeders, mixed int
		valid := true
		for _, b := range branches {
			switch b.pol {
			case polBus:
				buses++
			case polFeeder:
				feeders++
			case polMixed, polShunt:
				mixed++
				if _, _, ok := d.walkChain(b.nodes, id, b.first); !ok {
					valid = false
				}
			}
		}
		if valid && buses > 0 && feeders > 0 && mixed > 0 {
			return id, branches, true
		}
	}
	return topology.NoNode, nil, false
}

// walkChain follows degree-2 nodes from pivot into a branch. It returns the
// chain interior and the first node that branches or is already a shunt node.
func (d *detector) walkChain(s nodeSet, pivot, first topology.NodeID) ([]topology.NodeID, topology.NodeID, bool) {
	var chain []topology.NodeID
	prev, cur := pivot, first
	for {
		if cur == pivot {
			return nil, topology.NoNode, false
		}
		n := d.g.Node(cur)
		if n.Shunt {
			return chain, cur, true
		}
		if n.IsBus() || n.IsFeeder() {
			return nil, topology.NoNode, false
		}
		// pivot is outside the branch set, count it back for the first node.
		deg := d.degreeIn(s, cur)
		if d.g.HasEdge(cur, pivot) {
			deg++
		}
		if deg >= 3 {
			return chain, cur, true
		}
		if deg < 2 {
			return nil, topology.NoNode, false
		}
		chain = append(chain, cur)
		next := topology.NoNode
		for _, nb := range d.g.Adjacent(cur) {
			if nb != prev && (s.Contains(nb) || nb == pivot) {
				next = nb
				break
			}
		}
		if next == topology.NoNode {
			return nil, topology.NoNode, false
		}
		prev, cur = cur, next
	}
}

type polarity int

const (
	polEmpty polarity = iota
	polBus
	polFeeder
	polShunt
	polMixed
)

type branch struct {
	first topology.NodeID
	nodes nodeSet
	pol   polarity
}

// branches returns the parts of s hanging from pivot, each explored up to the
// terminals (buses, feeders and shunt nodes).
func (d *detector) branches(s nodeSet, pivot topology.NodeID) []branch {
	var out []branch
	for _, nb := range d.g.Adjacent(pivot) {
		if !s.Contains(nb) {
			continue
		}
		if !isTerminal(d.g.Node(nb)) && slices.ContainsFunc(out, func(b branch) bool { return b.nodes.Contains(nb) }) {
			continue
		}
		visited := set.From([]topology.NodeID{pivot})
		explore(d.g, nb, visited, inSet(s), isTerminal, never)
		visited.Remove(pivot)
		out = append(out, branch{first: nb, nodes: visited, pol: d.polarity(visited)})
	}
	return out
}

func (d *detector) polarity(nodes nodeSet) polarity {
	var bus, feeder, shunt bool
	for _, id := range nodes.Slice() {
		n := d.g.Node(id)
		switch {
		case n.IsBus():
			bus = true
		case n.IsFeeder():
			feeder = true
		case n.Shunt:
			shunt = true
		}
	}
	switch {
	case bus && feeder, shunt && (bus || feeder):
		return polMixed
	case shunt:
		return polShunt
	case bus:
		return polBus
	case feeder:
		return polFeeder
	default:
		return polEmpty
	}
}

func (d *detector) degreeIn(s nodeSet, id topology.NodeID) int {
	n := 0
	for _, nb := range d.g.Adjacent(id) {
		if s.Contains(nb) {
			n++
		}
	}
	return n
}

func (d *detector) sortedByName(s nodeSet) []topology.NodeID {
	ids := s.Slice()
	d.g.SortIDs(ids)
	return ids
}

// newCell registers a cell and updates the back-references of its nodes.
// Shunt endpoints and arch pivots keep the extern cell they belong to.
func (d *detector) newCell(kind Kind, nodes []topology.NodeID) *Cell {
	c := newCell(d.g, len(d.cells), kind, nodes)
	d.cells = append(d.cells, c)
	for _, id := range c.Nodes {
		n := d.g.Node(id)
		if n.IsBus() {
			continue
		}
		d.allocated.Insert(id)
		keep := (kind == Shunt || kind == Arch) && n.Shunt && n.Cell != -1
		if !keep {
			n.Cell = c.ID
		}
	}
	return c
}
