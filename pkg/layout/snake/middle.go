package snake

import (
	"math"
	"slices"

	"github.com/matzehuels/singleline/pkg/topology"
)

// TwoWinding places a two-winding transformer middle halfway along poly, the
// route between its two legs, and returns it with the two edges from each leg
// to the middle. An empty route gives no edges.
func TwoWinding(poly []topology.Point) (topology.Point, [][]topology.Point) {
	if len(poly) < 2 {
		return topology.Point{}, nil
	}
	half := length(poly) / 2
	walked := 0.0
	for i := 1; i < len(poly); i++ {
		seg := dist(poly[i-1], poly[i])
		if walked+seg < half && i < len(poly)-1 {
			walked += seg
			continue
		}
		t := 0.0
		if seg > 0 {
			t = (half - walked) / seg
		}
		mid := topology.Point{
			X: poly[i-1].X + (poly[i].X-poly[i-1].X)*t,
			Y: poly[i-1].Y + (poly[i].Y-poly[i-1].Y)*t,
		}
		first := append(slices.Clone(poly[:i]), mid)
		second := append([]topology.Point{mid}, poly[i:]...)
		slices.Reverse(second)
		return mid, [][]topology.Point{dedupe(first), dedupe(second)}
	}
	return poly[0], nil
}

// ThreeWinding places a three-winding transformer middle from the routes
// between legs one and two and legs two and three. The middle sits where the
// second route leaves leg two; the three returned edges run from each leg to
// the middle.
func ThreeWinding(p12, p23 []topology.Point) (topology.Point, [][]topology.Point) {
	if len(p12) < 2 || len(p23) < 2 {
		return topology.Point{}, nil
	}
	mid := p23[1]
	e1 := append(slices.Clone(p12[:len(p12)-1]), mid)
	e2 := []topology.Point{p23[0], mid}
	e3 := slices.Clone(p23[1:])
	slices.Reverse(e3)
	return mid, [][]topology.Point{dedupe(e1), dedupe(e2), dedupe(e3)}
}

func length(poly []topology.Point) float64 {
	l := 0.0
	for i := 1; i < len(poly); i++ {
		l += dist(poly[i-1], poly[i])
	}
	return l
}

func dist(a, b topology.Point) float64 {
	return math.Abs(b.X-a.X) + math.Abs(b.Y-a.Y)
}

// dedupe drops consecutive duplicate points.
func dedupe(poly []topology.Point) []topology.Point {
	return slices.Compact(poly)
}
