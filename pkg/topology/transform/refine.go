package transform

import (
	"slices"

	"github.com/matzehuels/singleline/pkg/topology"
)

// Options selects the optional refinement steps.
type Options struct {
	RemoveUnnecessaryFictitiousNodes         bool
	SubstituteSingularFictitiousByFeederNode bool
	RemoveFictitiousSwitchNodes              bool
	// ComponentsOnBusbars lists the ComponentType values of switches drawn
	// directly on busbars. Every other bus neighbor gets a bus connection.
	ComponentsOnBusbars []string
}

// Report counts the nodes rewritten by each step of [Refine].
type Report struct {
	MirroringFictitious int
	UnnecessaryRemoved  int
	FictitiousToFeeder  int
	FictitiousSwitches  int
	BusExtensions       int
	BusConnections      int
	Hooks               int
}

// Total returns the number of rewritten nodes over all steps.
func (r Report) Total() int {
	return r.MirroringFictitious + r.UnnecessaryRemoved + r.FictitiousToFeeder +
		r.FictitiousSwitches + r.BusExtensions + r.BusConnections + r.Hooks
}

// Refine normalizes a raw voltage-level graph in place so that every cell
// decomposes into legs, bodies and feeders. Steps run in a fixed order; the
// optional ones are selected by opts.
func Refine(g *topology.Graph, opts Options) Report {
	var r Report
	r.MirroringFictitious = SubstituteFictitiousMirroringBuses(g)
	if opts.RemoveUnnecessaryFictitiousNodes {
		r.UnnecessaryRemoved = RemoveUnnecessaryFictitious(g)
	}
	if opts.SubstituteSingularFictitiousByFeederNode {
		r.FictitiousToFeeder = SubstituteSingularFictitiousByFeeder(g)
	}
	if opts.RemoveFictitiousSwitchNodes {
		r.FictitiousSwitches = RemoveFictitiousSwitches(g)
	}
	r.BusExtensions = ExtendBusesConnectedToBuses(g)
	r.BusConnections = InsertBusConnections(g, opts.ComponentsOnBusbars)
	r.Hooks = InsertHookNodes(g)
	return r
}

// SubstituteFictitiousMirroringBuses merges into a bus every fictitious node
// whose neighbors, apart from that bus, are exactly the bus's neighbors. A
// fictitious node that is the only neighbor of a bus is merged as well.
func SubstituteFictitiousMirroringBuses(g *topology.Graph) int {
	count := 0
	for _, bus := range g.NodesOfKind(topology.KindBus) {
		nbs := g.Adjacent(bus.ID)
		if len(nbs) != 1 || g.Node(nbs[0]).Kind != topology.KindFictitious {
			continue
		}
		g.RemoveEdge(bus.ID, nbs[0])
		_ = g.Substitute(nbs[0], bus.ID)
		count++
	}
	for _, f := range g.NodesOfKind(topology.KindFictitious) {
		if g.Node(f.ID) == nil {
			continue
		}
		for _, nb := range g.Adjacent(f.ID) {
			bus := g.Node(nb)
			if !bus.IsBus() || !mirrors(g, f.ID, bus.ID) {
				continue
			}
			_ = g.Substitute(f.ID, bus.ID)
			count++
			break
		}
	}
	return count
}

func mirrors(g *topology.Graph, f, bus topology.NodeID) bool {
	fa := without(g.Adjacent(f), bus)
	ba := without(g.Adjacent(bus), f)
	return slices.Equal(fa, ba)
}

func without(ids []topology.NodeID, skip topology.NodeID) []topology.NodeID {
	out := make([]topology.NodeID, 0, len(ids))
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}

// RemoveUnnecessaryFictitious deletes isolated fictitious nodes and bridges
// degree-2 ones, except when both neighbors are buses.
func RemoveUnnecessaryFictitious(g *topology.Graph) int {
	count := 0
	for _, f := range g.NodesOfKind(topology.KindFictitious) {
		switch g.Degree(f.ID) {
		case 0:
			g.RemoveNode(f.ID)
			count++
		case 2:
			nbs := g.Adjacent(f.ID)
			if g.Node(nbs[0]).IsBus() && g.Node(nbs[1]).IsBus() {
				continue
			}
			if g.HasEdge(nbs[0], nbs[1]) {
				continue
			}
			g.Bridge(f.ID)
			count++
		}
	}
	return count
}

// SubstituteSingularFictitiousByFeeder turns every fictitious node with a
// single non-bus neighbor into a fictitious feeder.
func SubstituteSingularFictitiousByFeeder(g *topology.Graph) int {
	count := 0
	for _, f := range g.NodesOfKind(topology.KindFictitious) {
		if g.Degree(f.ID) != 1 || g.Node(g.Adjacent(f.ID)[0]).IsBus() {
			continue
		}
		f.Kind = topology.KindFeeder
		f.FeederKind = topology.FeederFictitious
		f.ComponentType = topology.ComponentFeeder
		count++
	}
	return count
}

// RemoveFictitiousSwitches removes closed switches flagged as fictitious and
// joins their two neighbors.
func RemoveFictitiousSwitches(g *topology.Graph) int {
	count := 0
	for _, sw := range g.NodesOfKind(topology.KindSwitch) {
		if !sw.FictitiousSwitch || sw.Open {
			continue
		}
		if g.Bridge(sw.ID) {
			count++
		}
	}
	return count
}

// ExtendBusesConnectedToBuses inserts an internal node on every bus-bus edge.
func ExtendBusesConnectedToBuses(g *topology.Graph) int {
	count := 0
	for _, e := range g.Edges() {
		a, b := g.Node(e.A), g.Node(e.B)
		if !a.IsBus() || !b.IsBus() {
			continue
		}
		_, _ = g.InsertBetween(e.A, e.B, topology.Node{
			Name: "INTERNAL_" + a.Name + "_" + b.Name,
			Kind: topology.KindInternal,
		})
		count++
	}
	return count
}

// InsertBusConnections separates every bus from its neighbors by a bus
// connection node, unless the neighbor is a switch whose component type is
// drawn on busbars. Existing bus connections are left alone.
func InsertBusConnections(g *topology.Graph, componentsOnBusbars []string) int {
	count := 0
	for _, bus := range g.Buses() {
		for _, nb := range g.AdjacentByName(bus.ID) {
			n := g.Node(nb)
			if n.Kind == topology.KindBusConnection || n.IsBus() {
				continue
			}
			if n.Kind == topology.KindSwitch && slices.Contains(componentsOnBusbars, n.ComponentType) {
				continue
			}
			_, _ = g.InsertBetween(bus.ID, nb, topology.Node{
				Name: "BUSCO_" + bus.Name + "_" + n.Name,
				Kind: topology.KindBusConnection,
			})
			count++
		}
	}
	return count
}

// InsertHookNodes inserts internal hook nodes so that legs and feeders become
// primary block chains: one between each bus-adjacent connector and its
// non-bus neighbors, one between each feeder and its neighbors. Neighbors that
// already are connectivity nodes need no hook.
func InsertHookNodes(g *topology.Graph) int {
	count := 0
	for _, bus := range g.Buses() {
		for _, c := range g.AdjacentByName(bus.ID) {
			conn := g.Node(c)
			if conn.Kind != topology.KindSwitch && conn.Kind != topology.KindBusConnection {
				continue
			}
			for _, nb := range g.AdjacentByName(c) {
				if needsHook(g.Node(nb)) {
					insertHook(g, c, nb)
					count++
				}
			}
		}
	}
	for _, f := range g.NodesOfKind(topology.KindFeeder) {
		for _, nb := range g.AdjacentByName(f.ID) {
			if needsHook(g.Node(nb)) {
				insertHook(g, nb, f.ID)
				count++
			}
		}
	}
	return count
}

func needsHook(n *topology.Node) bool {
	return !n.IsBus() && !n.IsConnectivity()
}

func insertHook(g *topology.Graph, a, b topology.NodeID) {
	_, _ = g.InsertBetween(a, b, topology.Node{
		Name: "HOOK_" + g.Name(a) + "_" + g.Name(b),
		Kind: topology.KindInternal,
	})
}
