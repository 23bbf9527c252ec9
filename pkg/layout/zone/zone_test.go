package zone

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/topology"
)

// checkPath fails unless path joins from and to through adjacent free cells.
func checkPath(t *testing.T, g *AvailabilityGrid, path []Cell, from, to Cell) {
	t.Helper()
	if len(path) == 0 || path[0] != from || path[len(path)-1] != to {
		t.Fatalf("path %v does not join %v and %v", path, from, to)
	}
	for i, c := range path {
		if i > 0 && manhattan(path[i-1], c) != 1 {
			t.Errorf("step %v -> %v is not adjacent", path[i-1], c)
		}
		if i > 0 && i < len(path)-1 && g.Blocked(c) {
			t.Errorf("path crosses obstacle %v", c)
		}
	}
}

func turns(path []Cell) int {
	n := 0
	for i := 2; i < len(path); i++ {
		h1 := path[i-1].Y == path[i-2].Y
		h2 := path[i].Y == path[i-1].Y
		if h1 != h2 {
			n++
		}
	}
	return n
}

func TestFindShortestPath(t *testing.T) {
	tests := []struct {
		name      string
		walls     [][2]Cell
		from, to  Cell
		wantLen   int
		wantTurns int
	}{
		{name: "straight", from: Cell{0, 2}, to: Cell{4, 2}, wantLen: 5, wantTurns: 0},
		{name: "one turn", from: Cell{0, 0}, to: Cell{3, 2}, wantLen: 6, wantTurns: 1},
		{name: "same cell", from: Cell{1, 1}, to: Cell{1, 1}, wantLen: 1, wantTurns: 0},
		{
			name:      "around a wall",
			walls:     [][2]Cell{{{2, 0}, {2, 3}}},
			from:      Cell{0, 0},
			to:        Cell{4, 0},
			wantLen:   13,
			wantTurns: 2,
		},
		{
			name:      "ends inside obstacles",
			walls:     [][2]Cell{{{0, 0}, {0, 4}}, {{4, 0}, {4, 4}}},
			from:      Cell{0, 2},
			to:        Cell{4, 2},
			wantLen:   5,
			wantTurns: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAvailabilityGrid(5, 5)
			for _, w := range tt.walls {
				g.Block(w[0], w[1])
			}
			path, err := g.FindShortestPath(tt.from, tt.to)
			if err != nil {
				t.Fatalf("FindShortestPath: %v", err)
			}
			checkPath(t, g, path, tt.from, tt.to)
			if len(path) != tt.wantLen {
				t.Errorf("len = %d, want %d (%v)", len(path), tt.wantLen, path)
			}
			if got := turns(path); got != tt.wantTurns {
				t.Errorf("turns = %d, want %d (%v)", got, tt.wantTurns, path)
			}
		})
	}
}

func TestFindShortestPath_NoPath(t *testing.T) {
	g := NewAvailabilityGrid(5, 5)
	g.Block(Cell{2, 0}, Cell{2, 4})

	path, err := g.FindShortestPath(Cell{0, 0}, Cell{4, 4})
	if !errors.Is(err, errors.ErrCodeNoPath) {
		t.Errorf("err = %v, want NO_PATH", err)
	}
	if path != nil {
		t.Errorf("path = %v, want none", path)
	}

	if _, err := g.FindShortestPath(Cell{0, 0}, Cell{9, 9}); !errors.Is(err, errors.ErrCodeNoPath) {
		t.Errorf("off-grid err = %v, want NO_PATH", err)
	}
}

func TestMarkPath_Crossing(t *testing.T) {
	g := NewAvailabilityGrid(5, 5)
	first, err := g.FindShortestPath(Cell{0, 2}, Cell{4, 2})
	if err != nil {
		t.Fatal(err)
	}
	g.MarkPath(first)

	// a perpendicular line crosses straight through
	cross, err := g.FindShortestPath(Cell{2, 0}, Cell{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(cross) != 5 {
		t.Errorf("crossing path %v, want straight", cross)
	}
	g.MarkPath(cross)

	// a parallel line may not reuse the first one
	again, err := g.FindShortestPath(Cell{0, 2}, Cell{4, 2})
	if err != nil {
		t.Fatal(err)
	}
	checkPath(t, g, again, Cell{0, 2}, Cell{4, 2})
	if len(again) != 7 {
		t.Errorf("len = %d, want 7 (%v)", len(again), again)
	}
	for _, c := range again[1 : len(again)-1] {
		if c.Y == 2 {
			t.Errorf("path runs along the first line at %v", c)
		}
	}
	if h, v := g.Used(Cell{2, 2}); !h || !v {
		t.Errorf("crossing cell used h=%v v=%v, want both", h, v)
	}
}

func TestNewMatrix(t *testing.T) {
	ids := []string{"s1", "s2", "s3", "s4", "s5"}
	sizes := []Size{{100, 80}, {120, 60}, {90, 100}, {50, 50}, {70, 70}}
	m := NewMatrix(ids, sizes, 60, 10)

	if m.Rows != 2 || m.Cols != 3 {
		t.Fatalf("matrix %dx%d, want 2x3", m.Rows, m.Cols)
	}
	if m.CellWidth != 120 || m.CellHeight != 100 {
		t.Errorf("cell %vx%v, want 120x100", m.CellWidth, m.CellHeight)
	}
	if m.Width != 60+3*180 || m.Height != 60+2*160 {
		t.Errorf("matrix size %vx%v", m.Width, m.Height)
	}
	p, ok := m.Placement("s5")
	if !ok {
		t.Fatal("s5 not placed")
	}
	if diff := cmp.Diff(Placement{ID: "s5", Row: 1, Col: 1, X: 240, Y: 220}, p); diff != "" {
		t.Errorf("placement (-want +got):\n%s", diff)
	}
	// the empty sixth cell is an obstacle too
	if !m.Grid.Blocked(m.cell(topology.Point{X: 460, Y: 270})) {
		t.Error("empty matrix cell is free")
	}
	if m.Grid.Blocked(m.cell(topology.Point{X: 30, Y: 30})) {
		t.Error("hallway is blocked")
	}
}

func TestMatrix_Route(t *testing.T) {
	m := NewMatrix([]string{"s1", "s2"}, []Size{{100, 100}, {100, 100}}, 60, 10)

	a := End{Substation: "s1", Point: topology.Point{X: 110, Y: 60}, Direction: topology.DirectionTop}
	b := End{Substation: "s2", Point: topology.Point{X: 270, Y: 60}, Direction: topology.DirectionTop}
	pts, err := m.Route(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []topology.Point{{X: 110, Y: 60}, {X: 110, Y: 30}, {X: 270, Y: 30}, {X: 270, Y: 60}}
	if diff := cmp.Diff(want, pts); diff != "" {
		t.Errorf("route (-want +got):\n%s", diff)
	}

	// the same route again must leave the marked hallway row
	pts, err = m.Route(a, b)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Y == 30 && pts[i-1].Y == 30 {
			t.Errorf("second line runs along the first: %v", pts)
		}
	}

	_, err = m.Route(a, End{Substation: "nope"})
	if !errors.Is(err, errors.ErrCodeMissingReference) {
		t.Errorf("err = %v, want MISSING_REFERENCE", err)
	}
}

func TestSimplify(t *testing.T) {
	in := []topology.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 5}, {X: 0, Y: 10}, {X: 5, Y: 10}, {X: 10, Y: 10}}
	want := []topology.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}
	if diff := cmp.Diff(want, Simplify(in)); diff != "" {
		t.Errorf("Simplify (-want +got):\n%s", diff)
	}
}
