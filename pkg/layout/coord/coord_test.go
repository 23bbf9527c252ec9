package coord

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
	"github.com/matzehuels/singleline/pkg/topology"
)

func layout(t *testing.T, g *topology.Graph, p params.Parameters) (*cell.Set, *Frame) {
	t.Helper()
	logger := log.New(io.Discard)
	s := cell.Detect(g, logger)
	if err := cell.Decompose(g, s, cell.DecomposeOptions{Stack: true}); err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	res, err := (&position.Finder{Logger: logger}).Find(g, s)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	return s, Calculate(g, s, res, p)
}

func node(t *testing.T, g *topology.Graph, name string) *topology.Node {
	t.Helper()
	n, ok := g.Lookup(name)
	if !ok {
		t.Fatalf("no node %s", name)
	}
	return n
}

func TestCalculate_FeederCell(t *testing.T) {
	p := params.Default()
	g := testgraph.FeederCell().Refined()
	s, f := layout(t, g, p)

	// top extent 250+60, bus at 60+310+30
	if f.BusY(1) != 400 {
		t.Fatalf("BusY(1) = %v, want 400", f.BusY(1))
	}
	if f.Width != 90 || f.Height != 800 {
		t.Errorf("frame = %vx%v, want 90x800", f.Width, f.Height)
	}
	if diff := cmp.Diff(Segment{X1: 20, X2: 50, Y: 400}, f.Buses[node(t, g, "bbs").ID]); diff != "" {
		t.Errorf("bus segment (-want +got):\n%s", diff)
	}

	d := node(t, g, "d")
	if d.X != 45 || d.Y != 400 {
		t.Errorf("connector at (%v,%v), want (45,400)", d.X, d.Y)
	}
	leg := block.Legs(s.Cells[0].Root)[0]
	hook := g.Node(leg.Hook)
	if hook.X != 45 || hook.Y != 370 {
		t.Errorf("hook at (%v,%v), want (45,370)", hook.X, hook.Y)
	}

	// the feeder hangs one feeder span above the top of the cell
	load := node(t, g, "load")
	if load.X != 45 || load.Y != 400-30-250-p.FeederSpan() {
		t.Errorf("feeder at (%v,%v), want (45,%v)", load.X, load.Y, 400-30-250-p.FeederSpan())
	}
	b := node(t, g, "b")
	if b.X != 45 || b.Y >= hook.Y || b.Y <= load.Y {
		t.Errorf("breaker at (%v,%v), want on the wire between hook and feeder", b.X, b.Y)
	}
}

func TestCalculate_FlatCoupling(t *testing.T) {
	g := testgraph.Coupling().Refined()
	s, f := layout(t, g, params.Default())

	bus := f.BusY(1)
	dc1, bc, dc2 := node(t, g, "dc1"), node(t, g, "bc"), node(t, g, "dc2")
	if !(dc1.X < bc.X && bc.X < dc2.X) {
		t.Errorf("coupling not left to right: %v %v %v", dc1.X, bc.X, dc2.X)
	}
	// coupling between slot 1 and slot 5, where bbs2 starts
	x1, x2 := f.SlotX(1), f.SlotX(5)
	if got := f.Buses[node(t, g, "bbs2").ID].X1; got != x2 {
		t.Errorf("bbs2 starts at %v, want %v", got, x2)
	}
	coupling := s.Get(bc.Cell)
	for _, id := range coupling.Nodes {
		n := g.Node(id)
		if n.IsBus() {
			continue
		}
		if n.Y != bus || n.X <= x1 || n.X >= x2 {
			t.Errorf("%s at (%v,%v), want on the bus row between %v and %v", n.Name, n.X, n.Y, x1, x2)
		}
	}

	// externs on opposite sides
	l1, l2 := node(t, g, "load1"), node(t, g, "load2")
	if !(l1.Y < bus && l2.Y > bus) {
		t.Errorf("loads at y=%v and y=%v, want one above and one below %v", l1.Y, l2.Y, bus)
	}
}

func TestCalculate_DoubleBusbar(t *testing.T) {
	g := testgraph.DoubleBusbar().Refined()
	_, f := layout(t, g, params.Default())

	if f.Rows != 2 {
		t.Fatalf("Rows = %d, want 2", f.Rows)
	}
	if f.BusY(2)-f.BusY(1) != params.Default().VerticalSpaceBus {
		t.Errorf("rows %v apart", f.BusY(2)-f.BusY(1))
	}
	d1, d2 := node(t, g, "d1"), node(t, g, "d2")
	if d1.X != d2.X {
		t.Errorf("stacked connectors at x=%v and x=%v", d1.X, d2.X)
	}
	if d1.Y != f.BusY(1) || d2.Y != f.BusY(2) {
		t.Errorf("connectors at y=%v,%v, want %v,%v", d1.Y, d2.Y, f.BusY(1), f.BusY(2))
	}
}

func TestCalculate_AdaptCellHeight(t *testing.T) {
	p := params.Default()
	p.AdaptCellHeightToContent = true
	g := testgraph.FeederCell().Refined()
	_, f := layout(t, g, p)

	if f.CellHeight >= p.ExternCellHeight {
		t.Errorf("CellHeight = %v, want less than %v", f.CellHeight, p.ExternCellHeight)
	}
	if math.Mod(f.CellHeight, 2*p.MinSpaceBetweenComponents) != 0 {
		t.Errorf("CellHeight = %v, want a multiple of %v", f.CellHeight, 2*p.MinSpaceBetweenComponents)
	}
}

func TestSerial_ZeroSpan(t *testing.T) {
	g := topology.New("vl")
	a := g.MustAdd(topology.Node{Name: "a", Kind: topology.KindSwitch})
	b := g.MustAdd(topology.Node{Name: "b", Kind: topology.KindSwitch})
	c := g.MustAdd(topology.Node{Name: "c", Kind: topology.KindSwitch})
	for _, id := range []topology.NodeID{a, b, c} {
		g.Node(id).Cell = 0
	}
	s, err := block.NewSerial(&block.BodyPrimary{Nodes: []topology.NodeID{a, b}}, &block.BodyPrimary{Nodes: []topology.NodeID{b, c}})
	if err != nil {
		t.Fatal(err)
	}
	block.SetOrientation(s, block.Up)
	*s.Coord() = block.Coord{X: 10, Y: 50, SpanY: 100}

	calc := &calculator{g: g, p: params.Default()}
	calc.visit(s)

	for _, id := range []topology.NodeID{a, b, c} {
		n := g.Node(id)
		if math.IsNaN(n.Y) || n.Y != 100 || n.X != 10 {
			t.Errorf("%s at (%v,%v), want (10,100)", n.Name, n.X, n.Y)
		}
	}
	for _, ch := range s.Children {
		if ch.Coord().SpanY != 0 {
			t.Errorf("child span %v, want 0", ch.Coord().SpanY)
		}
	}
}

func TestTranslate(t *testing.T) {
	g := testgraph.FeederCell().Refined()
	_, f := layout(t, g, params.Default())
	before := node(t, g, "load").Point()

	f.Translate(g, 100, 10)

	after := node(t, g, "load").Point()
	if diff := cmp.Diff(topology.Point{X: before.X + 100, Y: before.Y + 10}, after); diff != "" {
		t.Errorf("load (-want +got):\n%s", diff)
	}
	if f.X != 100 || f.Y != 10 || f.BusY(1) != 410 {
		t.Errorf("frame at (%v,%v) bus %v", f.X, f.Y, f.BusY(1))
	}
}

func TestEnlarge(t *testing.T) {
	p := params.Default()
	g := testgraph.FeederCell().Refined()
	_, f := layout(t, g, p)
	load := node(t, g, "load").Point()
	w, h := f.Width, f.Height

	f.Enlarge(g, params.Padding{Top: 40, Left: 10, Bottom: 5})

	if f.Width != w+10 || f.Height != h+45 {
		t.Errorf("frame = %vx%v, want %vx%v", f.Width, f.Height, w+10, h+45)
	}
	if got := node(t, g, "load").Point(); got.X != load.X+10 || got.Y != load.Y+40 {
		t.Errorf("load moved to %v from %v", got, load)
	}
	if got := f.Padding().Top; got != p.VoltageLevelPadding.Top+40 {
		t.Errorf("top padding = %v", got)
	}
	// bus rows follow the content
	if seg := f.Buses[node(t, g, "bbs").ID]; seg.Y != f.BusY(1) {
		t.Errorf("bus segment at y=%v, BusY(1) = %v", seg.Y, f.BusY(1))
	}
}
