package zone

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// AvailabilityGrid records which grid cells a line may use. Obstacles block a
// cell entirely; cells of routed lines block further lines along the same
// axis.
type AvailabilityGrid struct {
	Width, Height int

	blocked    *bitset.BitSet
	horizontal *bitset.BitSet
	vertical   *bitset.BitSet
}

// NewAvailabilityGrid returns a free grid of w by h cells.
func NewAvailabilityGrid(w, h int) *AvailabilityGrid {
	n := uint(max(w*h, 1))
	return &AvailabilityGrid{
		Width:      w,
		Height:     h,
		blocked:    bitset.New(n),
		horizontal: bitset.New(n),
		vertical:   bitset.New(n),
	}
}

// Contains reports whether c lies on the grid.
func (g *AvailabilityGrid) Contains(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

func (g *AvailabilityGrid) index(c Cell) uint { return uint(c.Y*g.Width + c.X) }

// Block marks the rectangle between a and b, both included, as an obstacle.
// Parts outside the grid are ignored.
func (g *AvailabilityGrid) Block(a, b Cell) { g.fill(a, b, true) }

// Unblock clears obstacles in the rectangle between a and b.
func (g *AvailabilityGrid) Unblock(a, b Cell) { g.fill(a, b, false) }

func (g *AvailabilityGrid) fill(a, b Cell, v bool) {
	for y := max(min(a.Y, b.Y), 0); y <= min(max(a.Y, b.Y), g.Height-1); y++ {
		for x := max(min(a.X, b.X), 0); x <= min(max(a.X, b.X), g.Width-1); x++ {
			g.blocked.SetTo(g.index(Cell{x, y}), v)
		}
	}
}

// Blocked reports whether c is an obstacle. Cells off the grid are blocked.
func (g *AvailabilityGrid) Blocked(c Cell) bool {
	return !g.Contains(c) || g.blocked.Test(g.index(c))
}

// Used reports whether routed lines run through c horizontally or
// vertically.
func (g *AvailabilityGrid) Used(c Cell) (horizontal, vertical bool) {
	if !g.Contains(c) {
		return false, false
	}
	i := g.index(c)
	return g.horizontal.Test(i), g.vertical.Test(i)
}

// MarkPath records a routed path. Both ends of every step are marked on the
// axis of the step, so corners are marked on both axes.
func (g *AvailabilityGrid) MarkPath(path []Cell) {
	for i := 1; i < len(path); i++ {
		set := g.vertical
		if path[i].Y == path[i-1].Y {
			set = g.horizontal
		}
		set.Set(g.index(path[i-1]))
		set.Set(g.index(path[i]))
	}
}

// enterable reports whether a line moving along the given axis may step into
// c. The goal is always enterable.
func (g *AvailabilityGrid) enterable(c Cell, horizontal bool, goal Cell) bool {
	if c == goal {
		return g.Contains(c)
	}
	if g.Blocked(c) {
		return false
	}
	h, v := g.Used(c)
	if horizontal {
		return !h
	}
	return !v
}

// turnable reports whether a line may change axis at c.
func (g *AvailabilityGrid) turnable(c Cell) bool {
	h, v := g.Used(c)
	return !h && !v
}
