package cell

import (
	"slices"
	"strings"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/topology"
)

// DecomposeOptions controls block decomposition.
type DecomposeOptions struct {
	// Stack lets legs from different buses ending on the same hook share one
	// column.
	Stack bool
	// IgnoreUnhandledPatterns turns structural errors into Undefined blocks.
	IgnoreUnhandledPatterns bool
}

// Decompose builds the block tree of every cell of s and sizes it. Vertical
// blocks are oriented upward until the position finder assigns directions.
func Decompose(g *topology.Graph, s *Set, opts DecomposeOptions) error {
	for _, c := range s.Cells {
		if err := decompose(g, c, opts); err != nil {
			return err
		}
	}
	return nil
}

func decompose(g *topology.Graph, c *Cell, opts DecomposeOptions) error {
	primaries, err := primaryBlocks(g, c)
	if err != nil {
		return undefinedOr(c, primaries, opts, err)
	}

	keep := func(topology.NodeID) bool { return false }
	if c.Kind == Intern {
		keep = func(id topology.NodeID) bool {
			return slices.ContainsFunc(primaries, func(b block.Block) bool { return block.IsLeg(b) && b.End() == id })
		}
	}
	blocks := merge(g, primaries, keep, opts.Stack)

	switch c.Kind {
	case Intern:
		err = c.organizeIntern(g, blocks)
	default:
		if len(blocks) != 1 {
			err = errors.New(errors.ErrCodeStructural, "cell %s reduces to %d blocks", c.FullID(), len(blocks))
		} else {
			c.Root = blocks[0]
		}
	}
	if err != nil {
		return undefinedOr(c, blocks, opts, err)
	}

	c.orient()
	block.Size(c.Root)
	return nil
}

func undefinedOr(c *Cell, blocks []block.Block, opts DecomposeOptions, err error) error {
	if !opts.IgnoreUnhandledPatterns {
		return err
	}
	c.Root = block.NewUndefined(blocks...)
	c.Legs = [2]block.Block{}
	c.Body = nil
	c.Shape = ShapeUndefined
	block.SetOrientation(c.Root, block.Up)
	block.Size(c.Root)
	return nil
}

// orient sets the default orientations: horizontal bodies for intern and
// shunt cells, upward for everything else.
func (c *Cell) orient() {
	switch {
	case c.Kind == Shunt, c.IsLegless():
		block.SetOrientation(c.Root, block.Right)
	case c.IsMultiLeg():
		block.SetOrientation(c.Legs[0], block.Up)
		block.SetOrientation(c.Legs[1], block.Up)
		block.SetOrientation(c.Body, block.Right)
		c.Root.Pos().Orientation = block.Right
	default:
		block.SetOrientation(c.Root, block.Up)
	}
}

func (c *Cell) organizeIntern(g *topology.Graph, blocks []block.Block) error {
	var legs, bodies []block.Block
	for _, b := range blocks {
		if block.IsLeg(b) {
			legs = append(legs, b)
		} else {
			bodies = append(bodies, b)
		}
	}
	slices.SortFunc(legs, func(a, b block.Block) int {
		return strings.Compare(g.Name(minBus(g, a)), g.Name(minBus(g, b)))
	})

	switch {
	case len(legs) == 0 && len(bodies) == 1 && g.Node(bodies[0].Start()).IsBus():
		c.Body = bodies[0]
		c.Root = bodies[0]
		c.Shape = ShapeFlat
		return nil
	case len(legs) == 1 && len(bodies) == 0:
		c.Root = legs[0]
		c.Shape = ShapeOneLeg
		return nil
	case len(legs) == 1 && len(bodies) == 1:
		s, err := block.NewSerial(legs[0], bodies[0])
		if err != nil {
			return err
		}
		c.Root = s
		c.Shape = ShapeOneLeg
		return nil
	case len(legs) == 2 && len(bodies) == 1:
		body := bodies[0]
		if body.Start() != legs[0].End() {
			r, ok := block.Reverse(body)
			if !ok || r.Start() != legs[0].End() {
				break
			}
			body = r
		}
		if body.End() != legs[1].End() {
			break
		}
		c.Legs = [2]block.Block{legs[0], legs[1]}
		c.Body = body
		c.Root = &block.Serial{Children: []block.Block{legs[0], body, legs[1]}}
		return nil
	}
	return errors.New(errors.ErrCodeStructural, "intern cell %s: %d legs and %d bodies", c.FullID(), len(legs), len(bodies))
}

func minBus(g *topology.Graph, b block.Block) topology.NodeID {
	legs := block.Legs(b)
	best := legs[0].Bus
	for _, l := range legs[1:] {
		if g.Name(l.Bus) < g.Name(best) {
			best = l.Bus
		}
	}
	return best
}

// primaryBlocks cuts the cell into maximal chains between delimiter nodes.
// Chains are oriented away from the cell origin (its buses, arch pivot or
// first shunt end).
func primaryBlocks(g *topology.Graph, c *Cell) ([]block.Block, error) {
	delim := func(id topology.NodeID) bool {
		n := g.Node(id)
		return !n.IsInterior() || c.degree(g, id) != 2 || id == c.Pivot || id == c.Ends[0] || id == c.Ends[1]
	}
	dist := c.distances(g)

	type edge struct{ a, b topology.NodeID }
	used := make(map[edge]bool)
	mark := func(a, b topology.NodeID) {
		used[edge{a, b}] = true
		used[edge{b, a}] = true
	}

	starts := slices.Clone(c.Nodes)
	slices.SortStableFunc(starts, func(a, b topology.NodeID) int { return dist[a] - dist[b] })

	var blocks []block.Block
	for _, u := range starts {
		if !delim(u) {
			continue
		}
		for _, v := range g.Adjacent(u) {
			if !c.Contains(v) || used[edge{u, v}] {
				continue
			}
			chain := []topology.NodeID{u, v}
			mark(u, v)
			for prev, cur := u, v; !delim(cur); {
				next := topology.NoNode
				for _, nb := range g.Adjacent(cur) {
					if nb != prev && c.Contains(nb) {
						next = nb
						break
					}
				}
				if next == topology.NoNode {
					break
				}
				mark(cur, next)
				chain = append(chain, next)
				prev, cur = cur, next
			}
			if dist[chain[0]] > dist[chain[len(chain)-1]] {
				slices.Reverse(chain)
			}
			b, err := block.NewPrimary(g, chain)
			if err != nil {
				return blocks, errors.Wrap(errors.ErrCodeStructural, err, "cell %s", c.FullID())
			}
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

func (c *Cell) degree(g *topology.Graph, id topology.NodeID) int {
	n := 0
	for _, nb := range g.Adjacent(id) {
		if c.Contains(nb) {
			n++
		}
	}
	return n
}

// distances returns the breadth-first distance of every cell node from the
// cell origin.
func (c *Cell) distances(g *topology.Graph) map[topology.NodeID]int {
	var origin []topology.NodeID
	switch c.Kind {
	case Arch:
		origin = []topology.NodeID{c.Pivot}
	case Shunt:
		origin = []topology.NodeID{c.Ends[0]}
	default:
		origin = c.Buses(g)
	}
	dist := make(map[topology.NodeID]int, len(c.Nodes))
	queue := slices.Clone(origin)
	for _, id := range origin {
		dist[id] = 0
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, nb := range g.Adjacent(id) {
			if _, seen := dist[nb]; seen || !c.Contains(nb) {
				continue
			}
			dist[nb] = dist[id] + 1
			queue = append(queue, nb)
		}
	}
	return dist
}

// merge reduces blocks to a fixpoint: legs sharing a hook become a
// LegParallel, blocks sharing both ends or leading to feeders from the same
// node become a BodyParallel, and two blocks meeting at a node no other block
// touches become a Serial. Nodes for which keep reports true are never merged
// through.
func merge(g *topology.Graph, blocks []block.Block, keep func(topology.NodeID) bool, stack bool) []block.Block {
	for {
		var ok bool
		if blocks, ok = mergeLegs(g, blocks, stack); ok {
			continue
		}
		if blocks, ok = mergeParallel(blocks); ok {
			continue
		}
		if blocks, ok = mergeFeederParallel(g, blocks); ok {
			continue
		}
		if blocks, ok = mergeSerial(g, blocks, keep); ok {
			continue
		}
		return blocks
	}
}

func mergeLegs(g *topology.Graph, blocks []block.Block, stack bool) ([]block.Block, bool) {
	for i, a := range blocks {
		if !block.IsLeg(a) {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(blocks); j++ {
			if block.IsLeg(blocks[j]) && blocks[j].End() == a.End() {
				group = append(group, j)
			}
		}
		if len(group) < 2 {
			continue
		}
		var legs []*block.LegPrimary
		for _, j := range group {
			legs = append(legs, block.Legs(blocks[j])...)
		}
		slices.SortFunc(legs, func(x, y *block.LegPrimary) int { return strings.Compare(g.Name(x.Bus), g.Name(y.Bus)) })
		return replace(blocks, group, block.NewLegParallel(stack && Stackable(legs), legs...)), true
	}
	return blocks, false
}

// Stackable reports whether legs end on the same hook from pairwise distinct
// buses, so that they can share one column.
func Stackable(legs []*block.LegPrimary) bool {
	buses := make(map[topology.NodeID]bool, len(legs))
	for _, l := range legs {
		if l.Hook != legs[0].Hook || buses[l.Bus] {
			return false
		}
		buses[l.Bus] = true
	}
	return true
}

func mergeParallel(blocks []block.Block) ([]block.Block, bool) {
	for i, a := range blocks {
		if block.IsLeg(a) || a.Start() == topology.NoNode || a.End() == topology.NoNode || a.Start() == a.End() {
			continue
		}
		group := []int{i}
		children := []block.Block{a}
		for j := i + 1; j < len(blocks); j++ {
			b := blocks[j]
			if block.IsLeg(b) {
				continue
			}
			switch {
			case b.Start() == a.Start() && b.End() == a.End():
			case b.Start() == a.End() && b.End() == a.Start():
				r, ok := block.Reverse(b)
				if !ok {
					continue
				}
				b = r
			default:
				continue
			}
			group = append(group, j)
			children = append(children, b)
		}
		if len(group) < 2 {
			continue
		}
		return replace(blocks, group, block.NewBodyParallel(children...)), true
	}
	return blocks, false
}

func mergeFeederParallel(g *topology.Graph, blocks []block.Block) ([]block.Block, bool) {
	toFeeder := func(b block.Block) bool {
		if block.IsLeg(b) || b.Start() == topology.NoNode {
			return false
		}
		return b.End() == topology.NoNode || g.Node(b.End()).IsFeeder()
	}
	for i, a := range blocks {
		if !toFeeder(a) {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(blocks); j++ {
			if toFeeder(blocks[j]) && blocks[j].Start() == a.Start() {
				group = append(group, j)
			}
		}
		if len(group) < 2 {
			continue
		}
		var children []block.Block
		for _, j := range group {
			if bp, ok := blocks[j].(*block.BodyParallel); ok && bp.End() == topology.NoNode {
				children = append(children, bp.Children...)
			} else {
				children = append(children, blocks[j])
			}
		}
		return replace(blocks, group, block.NewBodyParallel(children...)), true
	}
	return blocks, false
}

func mergeSerial(g *topology.Graph, blocks []block.Block, keep func(topology.NodeID) bool) ([]block.Block, bool) {
	incident := make(map[topology.NodeID][]int)
	var nodes []topology.NodeID
	for i, b := range blocks {
		for _, id := range []topology.NodeID{b.Start(), b.End()} {
			if id == topology.NoNode {
				continue
			}
			if _, ok := incident[id]; !ok {
				nodes = append(nodes, id)
			}
			incident[id] = append(incident[id], i)
		}
	}
	slices.Sort(nodes)
	for _, k := range nodes {
		idx := incident[k]
		n := g.Node(k)
		if len(idx) != 2 || idx[0] == idx[1] || n.IsBus() || n.IsFeeder() || keep(k) {
			continue
		}
		first, second, ok := chainAt(blocks[idx[0]], blocks[idx[1]], k)
		if !ok {
			continue
		}
		s, err := block.NewSerial(append(serialChildren(first), serialChildren(second)...)...)
		if err != nil {
			continue
		}
		return replace(blocks, idx, s), true
	}
	return blocks, false
}

// chainAt orders and orients a and b so that the first ends at k and the
// second starts at k.
func chainAt(a, b block.Block, k topology.NodeID) (block.Block, block.Block, bool) {
	switch {
	case a.End() == k && b.Start() == k:
		return a, b, true
	case a.Start() == k && b.End() == k:
		return b, a, true
	case a.End() == k && b.End() == k:
		if r, ok := block.Reverse(b); ok {
			return a, r, true
		}
		if r, ok := block.Reverse(a); ok {
			return b, r, true
		}
	case a.Start() == k && b.Start() == k:
		if r, ok := block.Reverse(a); ok {
			return r, b, true
		}
		if r, ok := block.Reverse(b); ok {
			return r, a, true
		}
	}
	return nil, nil, false
}

func serialChildren(b block.Block) []block.Block {
	if s, ok := b.(*block.Serial); ok {
		return s.Children
	}
	return []block.Block{b}
}

// replace removes the blocks at idx and puts repl at the position of the
// first one.
func replace(blocks []block.Block, idx []int, repl block.Block) []block.Block {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx[1:] {
		drop[i] = true
	}
	out := make([]block.Block, 0, len(blocks)-len(idx)+1)
	for i, b := range blocks {
		switch {
		case i == idx[0]:
			out = append(out, repl)
		case !drop[i]:
			out = append(out, b)
		}
	}
	return out
}
