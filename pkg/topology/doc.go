// Package topology provides the graph model of substation single-line diagrams.
//
// # Overview
//
// A [Graph] holds the topology of one voltage level: busbar sections,
// switches, feeders and connectivity nodes joined by undirected edges. A
// [Substation] groups voltage levels and the transformers connecting them, and
// a [Zone] groups substations and the lines between them.
//
// Nodes live in an arena owned by their graph and are addressed by [NodeID].
// Nothing outside the graph holds a *Node across mutations; cells, blocks and
// routes store ids and resolve them on demand. Cross-graph references use
// [NodeRef], which names the voltage level and the node.
//
// # Building Graphs
//
//	g := topology.New("vl1")
//	bus := g.MustAdd(topology.Node{Name: "bbs1", Kind: topology.KindBus})
//	d := g.MustAdd(topology.Node{Name: "d1", Kind: topology.KindSwitch,
//	    SwitchKind: topology.SwitchDisconnector})
//	g.Connect(bus, d)
//
// [Graph.AddNode] and [Graph.AddEdge] return errors for invalid input;
// [Graph.MustAdd] and [Graph.Connect] panic instead and are meant for
// fixtures and generated code.
//
// # Determinism
//
// Adjacency lists are kept sorted by id and every name-ordered accessor
// ([Graph.Buses], [Graph.AdjacentByName], [Graph.SortIDs]) sorts by the stable
// external name, so layouts depend only on the input, never on map iteration.
//
// # Validation
//
// [Graph.Validate], [Substation.Validate] and [Zone.Validate] report every
// problem found, aggregated with hashicorp/go-multierror.
//
// # Refinement
//
// Raw topologies are normalized before layout by the transform subpackage,
// which inserts bus connections and hook nodes so that every cell decomposes
// into legs, bodies and feeders.
package topology
