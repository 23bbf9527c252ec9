package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/layout/block"
	"github.com/matzehuels/singleline/pkg/layout/coord"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/topology"
)

// feeders builds a single-busbar voltage level whose feeders are all hinted
// to the top, in the given order.
func feeders(id string, names ...string) *topology.Graph {
	b := testgraph.New(id).Bus("bbs")
	for i, f := range names {
		d, br := "d_"+f, "b_"+f
		b.Disconnector(d).Breaker(br).
			Feeder(f, topology.FeederLine, topology.DirectionTop, i+1).
			Chain("bbs", d, br, f)
	}
	return b.G
}

func point(t *testing.T, g *topology.Graph, name string) topology.Point {
	t.Helper()
	n, ok := g.Lookup(name)
	if !ok {
		t.Fatalf("no node %s in %s", name, g.ID())
	}
	return n.Point()
}

func axisAligned(t *testing.T, e Edge) {
	t.Helper()
	for i := 1; i < len(e.Points); i++ {
		a, b := e.Points[i-1], e.Points[i]
		if a.X != b.X && a.Y != b.Y {
			t.Errorf("edge %s: diagonal segment %v -> %v", e.Name, a, b)
		}
	}
}

func TestLayoutVoltageLevel(t *testing.T) {
	c := NewContext(params.Default(), nil)
	g := testgraph.FeederCell().G
	vl, err := c.LayoutVoltageLevel(g)
	if err != nil {
		t.Fatalf("LayoutVoltageLevel: %v", err)
	}
	if len(vl.Cells.Cells) != 1 {
		t.Errorf("%d cells, want 1", len(vl.Cells.Cells))
	}
	if vl.Refinement.Total() == 0 {
		t.Error("refinement rewrote nothing")
	}
	load, bus := point(t, g, "load"), point(t, g, "bbs")
	if load.Y >= bus.Y {
		t.Errorf("load at y=%v, want above the busbar at y=%v", load.Y, bus.Y)
	}
	if n, _ := g.Lookup("load"); vl.Direction(n) != topology.DirectionTop {
		t.Errorf("load direction %v", vl.Direction(n))
	}
}

func TestLayoutVoltageLevel_Deterministic(t *testing.T) {
	coords := func() map[string]topology.Point {
		g := testgraph.DoubleBusbar().G
		if _, err := NewContext(params.Default(), nil).LayoutVoltageLevel(g); err != nil {
			t.Fatalf("LayoutVoltageLevel: %v", err)
		}
		out := map[string]topology.Point{}
		for _, n := range g.Nodes() {
			out[n.Name] = n.Point()
		}
		return out
	}
	if diff := cmp.Diff(coords(), coords()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestLayoutVoltageLevel_TwoSections(t *testing.T) {
	g := testgraph.TwoSections().G
	vl, err := NewContext(params.Default(), nil).LayoutVoltageLevel(g)
	if err != nil {
		t.Fatalf("LayoutVoltageLevel: %v", err)
	}
	if vl.Positions.Rows != 2 {
		t.Errorf("Rows = %d, want 2", vl.Positions.Rows)
	}
	if err := vl.Positions.Check(); err != nil {
		t.Error(err)
	}
	for _, c := range vl.Cells.Cells {
		if c.Root == nil {
			continue
		}
		if err := block.CheckSpans(c.Root); err != nil {
			t.Errorf("cell %s: %v", c.FullID(), err)
		}
	}

	seen := map[topology.Point]string{}
	for _, n := range g.Nodes() {
		if !n.IsFeeder() {
			continue
		}
		p := n.Point()
		if other, ok := seen[p]; ok {
			t.Errorf("feeders %s and %s both at %v", other, n.Name, p)
		}
		seen[p] = n.Name
	}
	if len(seen) != 4 {
		t.Errorf("%d feeders placed, want 4", len(seen))
	}

	bus := func(name string) coord.Segment {
		n, _ := g.Lookup(name)
		return vl.Frame.Buses[n.ID]
	}
	if top, bottom := bus("bbs11"), bus("bbs21"); top.Y >= bottom.Y {
		t.Errorf("busbar 1 at y=%v, want above busbar 2 at y=%v", top.Y, bottom.Y)
	}
	if left, right := bus("bbs11"), bus("bbs12"); left.X2 > right.X1 {
		t.Errorf("section 1 ends at x=%v, after section 2 starts at x=%v", left.X2, right.X1)
	}
}

func twoLevels(lines int) *topology.Substation {
	var n1, n2 []string
	for i := range lines {
		n1 = append(n1, "l1_"+string(rune('a'+i)))
		n2 = append(n2, "l2_"+string(rune('a'+i)))
	}
	n1 = append(n1, "t1")
	n2 = append(n2, "t2")
	s := &topology.Substation{
		ID:            "sub",
		VoltageLevels: []*topology.Graph{feeders("vl1", n1...), feeders("vl2", n2...)},
		Transformers: []*topology.MultiTerminal{{
			Name: "tr", Kind: topology.KindMiddle2WT,
			Legs: []topology.NodeRef{{Graph: "vl1", Node: "t1"}, {Graph: "vl2", Node: "t2"}},
		}},
	}
	for i := range lines {
		s.Lines = append(s.Lines, topology.BranchEdge{
			Name: "line_" + string(rune('a'+i)),
			From: topology.NodeRef{Graph: "vl1", Node: n1[i]},
			To:   topology.NodeRef{Graph: "vl2", Node: n2[i]},
		})
	}
	return s
}

func TestLayoutSubstation_Horizontal(t *testing.T) {
	c := NewContext(params.Default(), nil)
	sub := twoLevels(0)
	s, err := c.LayoutSubstation(sub)
	if err != nil {
		t.Fatalf("LayoutSubstation: %v", err)
	}

	vl1, vl2 := s.VoltageLevels[0], s.VoltageLevels[1]
	if vl2.Frame.X < vl1.Frame.X+vl1.Frame.Width {
		t.Errorf("vl2 at x=%v overlaps vl1 ending at %v", vl2.Frame.X, vl1.Frame.X+vl1.Frame.Width)
	}
	if vl1.Frame.FirstBusY() != vl2.Frame.FirstBusY() {
		t.Errorf("first busbars at y=%v and y=%v, want aligned", vl1.Frame.FirstBusY(), vl2.Frame.FirstBusY())
	}

	if len(s.Edges) != 2 {
		t.Fatalf("%d edges, want 2 transformer legs", len(s.Edges))
	}
	t1, t2 := point(t, vl1.Graph, "t1"), point(t, vl2.Graph, "t2")
	tr := sub.Transformers[0]
	if tr.X != (t1.X+t2.X)/2 || tr.Y >= t1.Y {
		t.Errorf("middle at (%v,%v), want halfway above the legs", tr.X, tr.Y)
	}
	for i, e := range s.Edges {
		axisAligned(t, e)
		first, last := e.Points[0], e.Points[len(e.Points)-1]
		if want := []topology.Point{t1, t2}[i]; first != want {
			t.Errorf("edge %s starts at %v, want %v", e.Name, first, want)
		}
		if last != (topology.Point{X: tr.X, Y: tr.Y}) {
			t.Errorf("edge %s ends at %v, want the middle", e.Name, last)
		}
	}
}

func TestLayoutSubstation_LanesFitAfterSecondPass(t *testing.T) {
	p := params.Default()
	p.VoltageLevelPadding.Top = 10
	c := NewContext(p, nil)
	s, err := c.LayoutSubstation(twoLevels(3))
	if err != nil {
		t.Fatalf("LayoutSubstation: %v", err)
	}

	if len(s.Edges) != 5 {
		t.Fatalf("%d edges, want 3 lines and 2 transformer legs", len(s.Edges))
	}
	top := s.VoltageLevels[0].Frame.Y
	lanes := map[float64]bool{}
	for _, e := range s.Edges[:3] {
		axisAligned(t, e)
		for _, pt := range e.Points {
			if pt.Y < top {
				t.Errorf("edge %s leaves the voltage level at y=%v < %v", e.Name, pt.Y, top)
			}
		}
		y := e.Points[1].Y
		if lanes[y] {
			t.Errorf("edge %s reuses lane y=%v", e.Name, y)
		}
		lanes[y] = true
	}
	if pad := s.VoltageLevels[0].Frame.Padding(); pad.Top <= 10 {
		t.Errorf("top padding %v, want enlarged", pad.Top)
	}
}

func TestLayoutSubstation_Vertical(t *testing.T) {
	p := params.Default()
	p.SubstationLayout = params.Vertical
	s, err := NewContext(p, nil).LayoutSubstation(twoLevels(1))
	if err != nil {
		t.Fatalf("LayoutSubstation: %v", err)
	}
	vl1, vl2 := s.VoltageLevels[0].Frame, s.VoltageLevels[1].Frame
	if vl2.Y < vl1.Y+vl1.Height {
		t.Errorf("vl2 at y=%v overlaps vl1 ending at %v", vl2.Y, vl1.Y+vl1.Height)
	}
	// top feeders of stacked levels do not face each other: global lane
	line := s.Edges[0]
	axisAligned(t, line)
	if len(line.Points) != 6 {
		t.Errorf("line %v, want a four-bend dogleg", line.Points)
	}
	if s.Width <= max(vl1.Width, vl2.Width)+p.DiagramPadding.Left+p.DiagramPadding.Right {
		t.Errorf("width %v leaves no room for the global lanes", s.Width)
	}
}

func TestLayoutSubstation_MissingReferenceSkipped(t *testing.T) {
	sub := twoLevels(1)
	sub.Lines = append(sub.Lines, topology.BranchEdge{
		Name: "ghost",
		From: topology.NodeRef{Graph: "vl1", Node: "nope"},
		To:   topology.NodeRef{Graph: "vl2", Node: "l2_a"},
	})
	s, err := NewContext(params.Default(), nil).LayoutSubstation(sub)
	if err != nil {
		t.Fatalf("LayoutSubstation: %v", err)
	}
	for _, e := range s.Edges {
		if e.Name == "ghost" {
			t.Error("line with a missing end was routed")
		}
	}
}

func TestLayoutZone(t *testing.T) {
	z := &topology.Zone{
		ID: "zone",
		Substations: []*topology.Substation{
			{ID: "s1", VoltageLevels: []*topology.Graph{feeders("vl1", "a", "self1")}},
			{ID: "s2", VoltageLevels: []*topology.Graph{feeders("vl2", "b"), feeders("vl3", "self2")}},
		},
		Lines: []topology.BranchEdge{
			{Name: "ab", From: topology.NodeRef{Graph: "vl1", Node: "a"}, To: topology.NodeRef{Graph: "vl2", Node: "b"}},
			{Name: "self", From: topology.NodeRef{Graph: "vl2", Node: "b"}, To: topology.NodeRef{Graph: "vl3", Node: "self2"}},
		},
	}
	out, err := NewContext(params.Default(), nil).LayoutZone(z)
	if err != nil {
		t.Fatalf("LayoutZone: %v", err)
	}

	s1, s2 := out.Substations[0], out.Substations[1]
	if s2.X < s1.X+s1.Width {
		t.Errorf("s2 at x=%v overlaps s1", s2.X)
	}
	if len(out.Edges) != 2 {
		t.Fatalf("%d edges, want 2", len(out.Edges))
	}

	ab := out.Edges[0]
	axisAligned(t, ab)
	a, b := point(t, s1.VoltageLevels[0].Graph, "a"), point(t, s2.VoltageLevels[0].Graph, "b")
	if len(ab.Points) < 2 || ab.Points[0] != a || ab.Points[len(ab.Points)-1] != b {
		t.Errorf("line ab = %v, want from %v to %v", ab.Points, a, b)
	}
	if self := out.Edges[1]; self.Points != nil {
		t.Errorf("line inside one substation routed: %v", self.Points)
	}
}
