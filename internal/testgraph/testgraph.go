// Package testgraph builds small voltage-level topologies for tests.
package testgraph

import (
	"github.com/matzehuels/singleline/pkg/topology"
	"github.com/matzehuels/singleline/pkg/topology/transform"
)

// Builder adds nodes and edges by name.
type Builder struct {
	G *topology.Graph
}

// New starts a voltage level with the given id.
func New(id string) *Builder {
	return &Builder{G: topology.New(id)}
}

// Bus adds a busbar section with optional busbar and section index hints.
func (b *Builder) Bus(name string, hints ...int) *Builder {
	n := topology.Node{Name: name, Kind: topology.KindBus}
	if len(hints) == 2 {
		n.BusbarIndex, n.SectionIndex = hints[0], hints[1]
	}
	b.G.MustAdd(n)
	return b
}

// Disconnector adds disconnectors.
func (b *Builder) Disconnector(names ...string) *Builder {
	return b.switches(topology.SwitchDisconnector, names)
}

// Breaker adds breakers.
func (b *Builder) Breaker(names ...string) *Builder {
	return b.switches(topology.SwitchBreaker, names)
}

func (b *Builder) switches(kind topology.SwitchKind, names []string) *Builder {
	for _, name := range names {
		b.G.MustAdd(topology.Node{Name: name, Kind: topology.KindSwitch, SwitchKind: kind})
	}
	return b
}

// Load adds load feeders.
func (b *Builder) Load(names ...string) *Builder {
	for _, name := range names {
		b.G.MustAdd(topology.Node{Name: name, Kind: topology.KindFeeder, FeederKind: topology.FeederLoad})
	}
	return b
}

// Feeder adds a feeder with a direction and order hint.
func (b *Builder) Feeder(name string, kind topology.FeederKind, dir topology.Direction, order int) *Builder {
	b.G.MustAdd(topology.Node{
		Name: name, Kind: topology.KindFeeder, FeederKind: kind,
		Direction: dir, Order: order, HasOrder: true,
	})
	return b
}

// Fictitious adds fictitious connectivity nodes.
func (b *Builder) Fictitious(names ...string) *Builder {
	for _, name := range names {
		b.G.MustAdd(topology.Node{Name: name, Kind: topology.KindFictitious})
	}
	return b
}

// Chain connects consecutive nodes.
func (b *Builder) Chain(names ...string) *Builder {
	for i := 1; i < len(names); i++ {
		b.G.Connect(b.ID(names[i-1]), b.ID(names[i]))
	}
	return b
}

// ID returns the id of a node, panicking if it does not exist.
func (b *Builder) ID(name string) topology.NodeID {
	n, ok := b.G.Lookup(name)
	if !ok {
		panic("testgraph: unknown node " + name)
	}
	return n.ID
}

// Refined refines the graph with disconnectors drawn on busbars and returns it.
func (b *Builder) Refined() *topology.Graph {
	transform.Refine(b.G, transform.Options{
		RemoveUnnecessaryFictitiousNodes:         true,
		SubstituteSingularFictitiousByFeederNode: true,
		ComponentsOnBusbars:                      []string{topology.ComponentDisconnector},
	})
	return b.G
}

// FeederCell is one busbar with a load behind a disconnector and a breaker.
func FeederCell() *Builder {
	return New("vl").
		Bus("bbs").
		Disconnector("d").Breaker("b").Load("load").
		Chain("bbs", "d", "b", "load")
}

// Coupling is two busbars joined by disconnector, breaker, disconnector, each
// busbar also feeding a load.
func Coupling() *Builder {
	return New("vl").
		Bus("bbs1").Bus("bbs2").
		Disconnector("dc1", "dc2", "d1", "d2").Breaker("bc", "b1", "b2").
		Load("load1", "load2").
		Chain("bbs1", "dc1", "bc", "dc2", "bbs2").
		Chain("bbs1", "d1", "b1", "load1").
		Chain("bbs2", "d2", "b2", "load2")
}

// FictitiousFanout is a busbar whose only neighbor is a fictitious node that
// fans out to two loads.
func FictitiousFanout() *Builder {
	return New("vl").
		Bus("bbs").
		Fictitious("fn").
		Disconnector("d1", "d2").Breaker("b1", "b2").
		Load("l1", "l2").
		Chain("bbs", "fn").
		Chain("fn", "d1", "b1", "l1").
		Chain("fn", "d2", "b2", "l2")
}

// DoubleBusbar is two parallel busbars with one load reachable from both and
// a coupling between them.
func DoubleBusbar() *Builder {
	return New("vl").
		Bus("bbs1").Bus("bbs2").
		Disconnector("d1", "d2", "dc1", "dc2").Breaker("b", "bc").
		Fictitious("n").
		Load("load").
		Chain("bbs1", "d1", "n").
		Chain("bbs2", "d2", "n").
		Chain("n", "b", "load").
		Chain("bbs1", "dc1", "bc", "dc2", "bbs2")
}

// ShuntPair is two feeders on one busbar whose breakers are linked by a shunt
// switch.
func ShuntPair() *Builder {
	return New("vl").
		Bus("bbs").
		Disconnector("d1", "d2").Breaker("b1", "b2", "s").
		Fictitious("n1", "n2").
		Load("load1", "load2").
		Chain("bbs", "d1", "n1", "b1", "load1").
		Chain("bbs", "d2", "n2", "b2", "load2").
		Chain("n1", "s", "n2")
}

// Sections is two busbar sections joined by a bus tie, each with two loads.
func Sections() *Builder {
	return New("vl").
		Bus("bbs1", 1, 1).Bus("bbs2", 1, 2).
		Disconnector("dt1", "dt2", "d11", "d12", "d21", "d22").
		Breaker("bt", "b11", "b12", "b21", "b22").
		Load("l11", "l12", "l21", "l22").
		Chain("bbs1", "dt1", "bt", "dt2", "bbs2").
		Chain("bbs1", "d11", "b11", "l11").
		Chain("bbs1", "d12", "b12", "l12").
		Chain("bbs2", "d21", "b21", "l21").
		Chain("bbs2", "d22", "b22", "l22")
}

// TwoSections is a double busbar split in two sections. Each section has two
// loads reachable from both of its busbars and a coupling between them; bus
// ties join the sections on each busbar.
func TwoSections() *Builder {
	b := New("vl").
		Bus("bbs11", 1, 1).Bus("bbs21", 2, 1).Bus("bbs12", 1, 2).Bus("bbs22", 2, 2).
		Disconnector("t1a", "t1b", "t2a", "t2b", "c1a", "c1b", "c2a", "c2b").
		Breaker("t1", "t2", "c1", "c2")
	b.Chain("bbs11", "t1a", "t1", "t1b", "bbs12").
		Chain("bbs21", "t2a", "t2", "t2b", "bbs22").
		Chain("bbs11", "c1a", "c1", "c1b", "bbs21").
		Chain("bbs12", "c2a", "c2", "c2b", "bbs22")
	for _, f := range []struct{ name, top, bottom string }{
		{"l1", "bbs11", "bbs21"},
		{"l2", "bbs11", "bbs21"},
		{"l3", "bbs12", "bbs22"},
		{"l4", "bbs12", "bbs22"},
	} {
		n := f.name
		b.Disconnector(n+"d1", n+"d2").Breaker(n+"b").Fictitious(n+"n").Load(n).
			Chain(f.top, n+"d1", n+"n").
			Chain(f.bottom, n+"d2", n+"n").
			Chain(n+"n", n+"b", n)
	}
	return b
}

// ParallelCouplings is two busbars joined by two couplings and nothing else.
func ParallelCouplings() *Builder {
	return New("vl").
		Bus("b1").Bus("b2").
		Disconnector("dx1", "dy1", "dx2", "dy2").Breaker("br1", "br2").
		Chain("b1", "dx1", "br1", "dy1", "b2").
		Chain("b1", "dx2", "br2", "dy2", "b2")
}
