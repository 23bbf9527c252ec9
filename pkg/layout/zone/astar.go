package zone

import (
	"container/heap"
	"fmt"
	"slices"

	"github.com/matzehuels/singleline/pkg/errors"
)

// ErrNoPath is returned when two cells cannot be joined on the grid.
var ErrNoPath = errors.New(errors.ErrCodeNoPath, "no free path")

type axis int

const (
	axisNone axis = iota
	axisH
	axisV
)

type state struct {
	c Cell
	a axis
}

type cost struct {
	length, turns int
}

func (c cost) less(o cost) bool {
	if c.length != o.length {
		return c.length < o.length
	}
	return c.turns < o.turns
}

type item struct {
	s   state
	g   cost
	f   cost
	seq int
}

type queue []*item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f.less(q[j].f)
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any) { *q = append(*q, x.(*item)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

var steps = [4]struct {
	dx, dy int
	a      axis
}{
	{1, 0, axisH}, {-1, 0, axisH}, {0, 1, axisV}, {0, -1, axisV},
}

// FindShortestPath returns the cells of a shortest 4-connected path from
// from to to, both included, with the fewest turns among shortest paths. The
// end cells may be obstacles. It returns [ErrNoPath] when no path exists.
func (g *AvailabilityGrid) FindShortestPath(from, to Cell) ([]Cell, error) {
	if !g.Contains(from) || !g.Contains(to) {
		return nil, fmt.Errorf("%w: %v to %v off grid", ErrNoPath, from, to)
	}

	start := state{from, axisNone}
	best := map[state]cost{start: {}}
	parent := map[state]state{}
	q := &queue{}
	seq := 0
	heap.Push(q, &item{s: start, f: cost{length: manhattan(from, to)}})

	for q.Len() > 0 {
		cur := heap.Pop(q).(*item)
		if b, ok := best[cur.s]; ok && b.less(cur.g) {
			continue
		}
		if cur.s.c == to {
			return walkBack(parent, cur.s, start), nil
		}
		for _, st := range steps {
			next := Cell{cur.s.c.X + st.dx, cur.s.c.Y + st.dy}
			turn := cur.s.a != axisNone && cur.s.a != st.a
			if turn && cur.s.c != from && !g.turnable(cur.s.c) {
				continue
			}
			if !g.enterable(next, st.a == axisH, to) {
				continue
			}
			nc := cost{length: cur.g.length + 1, turns: cur.g.turns}
			if turn {
				nc.turns++
			}
			ns := state{next, st.a}
			if b, ok := best[ns]; ok && !nc.less(b) {
				continue
			}
			best[ns] = nc
			parent[ns] = cur.s
			seq++
			heap.Push(q, &item{
				s:   ns,
				g:   nc,
				f:   cost{length: nc.length + manhattan(next, to), turns: nc.turns},
				seq: seq,
			})
		}
	}
	return nil, fmt.Errorf("%w: %v to %v", ErrNoPath, from, to)
}

func walkBack(parent map[state]state, s, start state) []Cell {
	var path []Cell
	for {
		path = append(path, s.c)
		if s == start {
			break
		}
		s = parent[s]
	}
	slices.Reverse(path)
	return path
}

func manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
