package topology

import (
	"errors"
	"testing"
)

func newTestGraph() (*Graph, NodeID, NodeID, NodeID) {
	g := New("vl")
	bus := g.MustAdd(Node{Name: "bbs", Kind: KindBus})
	sw := g.MustAdd(Node{Name: "d", Kind: KindSwitch, SwitchKind: SwitchDisconnector})
	load := g.MustAdd(Node{Name: "load", Kind: KindFeeder, FeederKind: FeederLoad})
	g.Connect(bus, sw)
	g.Connect(sw, load)
	return g, bus, sw, load
}

func TestAddNode(t *testing.T) {
	g := New("vl")
	if _, err := g.AddNode(Node{Kind: KindBus}); !errors.Is(err, ErrInvalidNodeName) {
		t.Errorf("empty name: got %v, want ErrInvalidNodeName", err)
	}
	id, err := g.AddNode(Node{Name: "bbs", Kind: KindBus})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode(Node{Name: "bbs", Kind: KindBus}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate: got %v, want ErrDuplicateNode", err)
	}
	n := g.Node(id)
	if n.ComponentType != ComponentBusbarSection {
		t.Errorf("ComponentType = %q, want %q", n.ComponentType, ComponentBusbarSection)
	}
	if n.Cell != -1 {
		t.Errorf("Cell = %d, want -1", n.Cell)
	}
}

func TestAddEdge(t *testing.T) {
	g, bus, sw, _ := newTestGraph()

	if err := g.AddEdge(bus, bus); !errors.Is(err, ErrSelfLoop) {
		t.Errorf("self loop: got %v", err)
	}
	if err := g.AddEdge(bus, 42); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown node: got %v", err)
	}
	if err := g.AddEdge(bus, sw); err != nil {
		t.Errorf("duplicate edge should be a no-op, got %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}
}

func TestRemoveNodeKeepsIDs(t *testing.T) {
	g, bus, sw, load := newTestGraph()
	g.RemoveNode(sw)

	if g.Node(sw) != nil {
		t.Error("removed node still resolves")
	}
	if g.Node(load).ID != load || g.Node(bus).ID != bus {
		t.Error("surviving ids changed")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
	if _, ok := g.Lookup("d"); ok {
		t.Error("removed node still found by name")
	}
	next := g.MustAdd(Node{Name: "d2", Kind: KindSwitch})
	if next == sw {
		t.Error("tombstoned id reused")
	}
}

func TestInsertBetween(t *testing.T) {
	g, bus, sw, _ := newTestGraph()
	g.MustAdd(Node{Name: "hook", Kind: KindInternal})

	id, err := g.InsertBetween(bus, sw, Node{Name: "hook", Kind: KindInternal})
	if err != nil {
		t.Fatal(err)
	}
	if g.Name(id) != "hook_1" {
		t.Errorf("name = %q, want hook_1", g.Name(id))
	}
	if g.HasEdge(bus, sw) {
		t.Error("original edge kept")
	}
	if !g.HasEdge(bus, id) || !g.HasEdge(id, sw) {
		t.Error("inserted node not connected")
	}
	if _, err := g.InsertBetween(bus, sw, Node{Name: "x"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("missing edge: got %v", err)
	}
}

func TestSubstitute(t *testing.T) {
	g := New("vl")
	bus := g.MustAdd(Node{Name: "bbs", Kind: KindBus})
	f := g.MustAdd(Node{Name: "f", Kind: KindFictitious})
	a := g.MustAdd(Node{Name: "a", Kind: KindSwitch})
	b := g.MustAdd(Node{Name: "b", Kind: KindSwitch})
	g.Connect(bus, f)
	g.Connect(f, a)
	g.Connect(f, b)
	g.Connect(bus, a)

	if err := g.Substitute(f, bus); err != nil {
		t.Fatal(err)
	}
	if g.Node(f) != nil {
		t.Error("substituted node still present")
	}
	if got := g.Degree(bus); got != 2 {
		t.Errorf("bus degree = %d, want 2", got)
	}
	if !g.HasEdge(bus, b) {
		t.Error("edge not moved")
	}
}

func TestBridge(t *testing.T) {
	g, bus, sw, load := newTestGraph()
	if !g.Bridge(sw) {
		t.Fatal("Bridge returned false for degree-2 node")
	}
	if !g.HasEdge(bus, load) {
		t.Error("neighbors not joined")
	}
	if g.Bridge(bus) {
		t.Error("Bridge should refuse degree-1 node")
	}
}

func TestAdjacentByName(t *testing.T) {
	g := New("vl")
	c := g.MustAdd(Node{Name: "c", Kind: KindSwitch})
	z := g.MustAdd(Node{Name: "z", Kind: KindSwitch})
	a := g.MustAdd(Node{Name: "a", Kind: KindSwitch})
	g.Connect(c, z)
	g.Connect(c, a)

	got := g.AdjacentByName(c)
	if len(got) != 2 || got[0] != a || got[1] != z {
		t.Errorf("AdjacentByName = %v, want [%d %d]", got, a, z)
	}
}

func TestValidate(t *testing.T) {
	g, _, _, _ := newTestGraph()
	if err := g.Validate(); err != nil {
		t.Errorf("valid graph: %v", err)
	}

	g.adj[0] = append(g.adj[0], 99)
	err := g.Validate()
	if !errors.Is(err, ErrInvalidEdgeEndpoint) {
		t.Errorf("corrupted graph: got %v, want ErrInvalidEdgeEndpoint", err)
	}
}

func TestClone(t *testing.T) {
	g, bus, _, _ := newTestGraph()
	c := g.Clone()
	c.Node(bus).X = 10
	c.RemoveNode(bus)
	if g.Node(bus) == nil || g.Node(bus).X != 0 {
		t.Error("clone shares state with original")
	}
}

func TestSubstationValidate(t *testing.T) {
	g1, _, _, _ := newTestGraph()
	s := &Substation{
		ID:            "s",
		VoltageLevels: []*Graph{g1},
		Transformers: []*MultiTerminal{
			{Name: "t", Kind: KindMiddle2WT, Legs: []NodeRef{{Graph: "vl", Node: "load"}, {Graph: "vl2", Node: "x"}}},
		},
	}
	err := s.Validate()
	if !errors.Is(err, ErrUnknownVoltageLevel) {
		t.Errorf("got %v, want ErrUnknownVoltageLevel", err)
	}
}

func TestZoneLocate(t *testing.T) {
	g1, _, _, _ := newTestGraph()
	z := &Zone{Substations: []*Substation{{ID: "s", VoltageLevels: []*Graph{g1}}}}

	s, g, n, err := z.Locate(NodeRef{Graph: "vl", Node: "load"})
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "s" || g != g1 || n.Name != "load" {
		t.Errorf("Locate resolved to %s/%s/%s", s.ID, g.ID(), n.Name)
	}
	if _, _, _, err := z.Locate(NodeRef{Graph: "vl", Node: "nope"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, want ErrUnknownNode", err)
	}
}
