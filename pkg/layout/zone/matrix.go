package zone

import (
	"math"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Size is the extent of a laid-out substation.
type Size struct {
	Width, Height float64
}

// Placement is the matrix slot of a substation and the zone coordinates of
// its top-left corner.
type Placement struct {
	ID       string
	Row, Col int
	X, Y     float64
}

// End is one end of a zone line: a feeder in zone coordinates, leaving its
// substation upwards or downwards.
type End struct {
	Substation string
	Point      topology.Point
	Direction  topology.Direction
}

// Matrix is the placement of the substations of a zone.
type Matrix struct {
	Rows, Cols            int
	CellWidth, CellHeight float64
	Hallway               float64
	Step                  float64
	Width, Height         float64

	Placements []Placement
	Grid       *AvailabilityGrid

	index map[string]int
}

// NewMatrix places substations, in the given order, row by row on a matrix
// with ceil(sqrt(n)) columns. Every matrix cell is as large as the largest
// substation; hallways run around and between cells.
func NewMatrix(ids []string, sizes []Size, hallway, step float64) *Matrix {
	n := len(ids)
	m := &Matrix{Hallway: hallway, Step: step, index: make(map[string]int, n)}
	if n == 0 {
		m.Grid = NewAvailabilityGrid(0, 0)
		return m
	}
	m.Cols = int(math.Ceil(math.Sqrt(float64(n))))
	m.Rows = (n + m.Cols - 1) / m.Cols
	for _, s := range sizes {
		m.CellWidth = max(m.CellWidth, s.Width)
		m.CellHeight = max(m.CellHeight, s.Height)
	}
	m.Width = hallway + float64(m.Cols)*(m.CellWidth+hallway)
	m.Height = hallway + float64(m.Rows)*(m.CellHeight+hallway)

	for i, id := range ids {
		r, c := i/m.Cols, i%m.Cols
		x, y := m.origin(r, c)
		m.Placements = append(m.Placements, Placement{ID: id, Row: r, Col: c, X: x, Y: y})
		m.index[id] = i
	}

	m.Grid = NewAvailabilityGrid(int(math.Ceil(m.Width/step))+1, int(math.Ceil(m.Height/step))+1)
	for r := range m.Rows {
		for c := range m.Cols {
			x, y := m.origin(r, c)
			m.Grid.Block(
				Cell{int(math.Ceil(x / step)), int(math.Ceil(y / step))},
				Cell{int(math.Floor((x + m.CellWidth) / step)), int(math.Floor((y + m.CellHeight) / step))},
			)
		}
	}
	return m
}

func (m *Matrix) origin(r, c int) (float64, float64) {
	return m.Hallway + float64(c)*(m.CellWidth+m.Hallway), m.Hallway + float64(r)*(m.CellHeight+m.Hallway)
}

// Placement returns the placement of substation id.
func (m *Matrix) Placement(id string) (Placement, bool) {
	i, ok := m.index[id]
	if !ok {
		return Placement{}, false
	}
	return m.Placements[i], true
}

func (m *Matrix) cell(p topology.Point) Cell {
	return Cell{int(math.Round(p.X / m.Step)), int(math.Round(p.Y / m.Step))}
}

func (m *Matrix) point(c Cell) topology.Point {
	return topology.Point{X: float64(c.X) * m.Step, Y: float64(c.Y) * m.Step}
}

// exit returns the grid cell in the hallway e leaves its substation through.
func (m *Matrix) exit(e End) (Cell, error) {
	pl, ok := m.Placement(e.Substation)
	if !ok {
		return Cell{}, errors.New(errors.ErrCodeMissingReference, "zone line: unknown substation %s", e.Substation)
	}
	y := pl.Y - m.Hallway/2
	if e.Direction == topology.DirectionBottom {
		y = pl.Y + m.CellHeight + m.Hallway/2
	}
	return m.cell(topology.Point{X: e.Point.X, Y: y}), nil
}

// Route routes a line from a to b through the hallways and marks it on the
// grid. Without a free path it returns no points and an error wrapping
// [ErrNoPath].
func (m *Matrix) Route(a, b End) ([]topology.Point, error) {
	ca, err := m.exit(a)
	if err != nil {
		return nil, err
	}
	cb, err := m.exit(b)
	if err != nil {
		return nil, err
	}
	path, err := m.Grid.FindShortestPath(ca, cb)
	if err != nil {
		return nil, err
	}
	m.Grid.MarkPath(path)

	pa, pb := m.point(ca), m.point(cb)
	pts := []topology.Point{a.Point, {X: a.Point.X, Y: pa.Y}}
	for _, c := range path {
		pts = append(pts, m.point(c))
	}
	pts = append(pts, topology.Point{X: b.Point.X, Y: pb.Y}, b.Point)
	return Simplify(pts), nil
}

// Simplify drops repeated points and the inner points of straight runs.
func Simplify(pts []topology.Point) []topology.Point {
	out := make([]topology.Point, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		if n := len(out); n >= 2 && collinear(out[n-2], out[n-1], p) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func collinear(a, b, c topology.Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}
