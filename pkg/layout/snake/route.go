package snake

import (
	"slices"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Box is the frame of a voltage level in substation coordinates.
type Box struct {
	ID                  string
	X, Y, Width, Height float64
	Padding             params.Padding
}

func (b Box) top() float64    { return b.Y + b.Padding.Top }
func (b Box) bottom() float64 { return b.Y + b.Height - b.Padding.Bottom }

// End is one end of a snake line: a feeder node and the direction of the
// cell it belongs to.
type End struct {
	VL        string
	Point     topology.Point
	Direction topology.Direction
}

func (e End) dir() topology.Direction {
	if e.Direction == topology.DirectionBottom {
		return topology.DirectionBottom
	}
	return topology.DirectionTop
}

// Router routes snake lines between the voltage levels of one substation,
// given in layout order: left to right, or top to bottom when p selects a
// vertical substation layout.
type Router struct {
	counters *Counters
	p        params.Parameters
	boxes    []Box
	index    map[string]int
}

// NewRouter returns a router claiming lanes from c.
func NewRouter(c *Counters, p params.Parameters, boxes []Box) *Router {
	r := &Router{counters: c, p: p, boxes: boxes, index: make(map[string]int, len(boxes))}
	for i, b := range boxes {
		r.index[b.ID] = i
	}
	return r
}

// Route returns the polyline from a to b. Ends in voltage levels the router
// does not know are a missing reference.
func (r *Router) Route(a, b End) ([]topology.Point, error) {
	ia, ok := r.index[a.VL]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingReference, "snake line: unknown voltage level %s", a.VL)
	}
	ib, ok := r.index[b.VL]
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingReference, "snake line: unknown voltage level %s", b.VL)
	}
	if r.p.SubstationLayout == params.Vertical {
		return r.vertical(a, b, ia, ib), nil
	}
	return r.horizontal(a, b, ia, ib), nil
}

func (r *Router) horizontal(a, b End, ia, ib int) []topology.Point {
	da, db := a.dir(), b.dir()
	if da == db {
		lo, hi := min(ia, ib), max(ia, ib)
		vls := make([]string, 0, hi-lo+1)
		for _, box := range r.boxes[lo : hi+1] {
			vls = append(vls, box.ID)
		}
		y := r.laneY(r.boxes[lo:hi+1], da, r.counters.nextShared(vls, da))
		return []topology.Point{a.Point, {X: a.Point.X, Y: y}, {X: b.Point.X, Y: y}, b.Point}
	}

	ya := r.laneY(r.boxes[ia:ia+1], da, r.counters.nextTopBottom(a.VL, da))
	yb := r.laneY(r.boxes[ib:ib+1], db, r.counters.nextTopBottom(b.VL, db))
	var x float64
	if ia == ib {
		box := r.boxes[ia]
		n := r.counters.nextSide(box.ID, topology.SideRight)
		x = box.X + box.Width - box.Padding.Right + float64(n)*r.p.HorizontalSnakeLinePadding
	} else {
		box := r.boxes[max(ia, ib)]
		n := r.counters.nextSide(box.ID, topology.SideLeft)
		x = box.X + box.Padding.Left - float64(n)*r.p.HorizontalSnakeLinePadding
	}
	return dogleg(a.Point, b.Point, ya, yb, x)
}

func (r *Router) vertical(a, b End, ia, ib int) []topology.Point {
	upper, lower, iu, il := a, b, ia, ib
	swapped := ib < ia
	if swapped {
		upper, lower, iu, il = b, a, ib, ia
	}
	if il-iu == 1 && upper.dir() == topology.DirectionBottom && lower.dir() == topology.DirectionTop {
		n := r.counters.nextTopBottom(upper.VL, topology.DirectionBottom)
		y := r.boxes[iu].bottom() + float64(n)*r.p.VerticalSnakeLinePadding
		pts := []topology.Point{upper.Point, {X: upper.Point.X, Y: y}, {X: lower.Point.X, Y: y}, lower.Point}
		if swapped {
			slices.Reverse(pts)
		}
		return pts
	}

	ya := r.laneY(r.boxes[ia:ia+1], a.dir(), r.counters.nextTopBottom(a.VL, a.dir()))
	yb := r.laneY(r.boxes[ib:ib+1], b.dir(), r.counters.nextTopBottom(b.VL, b.dir()))
	left, right := r.extent()
	side := topology.SideRight
	if min(a.Point.X, b.Point.X)-left <= right-max(a.Point.X, b.Point.X) {
		side = topology.SideLeft
	}
	n := float64(r.counters.nextGlobal(side)) * r.p.HorizontalSnakeLinePadding
	x := right + n
	if side == topology.SideLeft {
		x = left - n
	}
	return dogleg(a.Point, b.Point, ya, yb, x)
}

// laneY returns the Y of the n-th lane on side d of boxes.
func (r *Router) laneY(boxes []Box, d topology.Direction, n int) float64 {
	off := float64(n) * r.p.VerticalSnakeLinePadding
	if d == topology.DirectionBottom {
		y := boxes[0].bottom()
		for _, b := range boxes[1:] {
			y = max(y, b.bottom())
		}
		return y + off
	}
	y := boxes[0].top()
	for _, b := range boxes[1:] {
		y = min(y, b.top())
	}
	return y - off
}

// extent returns the left and right edges of all voltage levels.
func (r *Router) extent() (float64, float64) {
	left, right := r.boxes[0].X, r.boxes[0].X+r.boxes[0].Width
	for _, b := range r.boxes[1:] {
		left = min(left, b.X)
		right = max(right, b.X+b.Width)
	}
	return left, right
}

func dogleg(a, b topology.Point, ya, yb, x float64) []topology.Point {
	return []topology.Point{
		a,
		{X: a.X, Y: ya},
		{X: x, Y: ya},
		{X: x, Y: yb},
		{X: b.X, Y: yb},
		b,
	}
}
