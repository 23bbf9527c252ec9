package topology

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidNodeName is returned by [Graph.AddNode] when the node name is
	// empty. Every node needs a stable external identifier.
	ErrInvalidNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the same
	// name already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownNode is returned when a [NodeID] does not refer to a live node
	// of the graph, either because it was never added or because it was removed.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Graph.AddEdge] when both endpoints are the same
	// node. Single-line topologies never contain self loops.
	ErrSelfLoop = errors.New("self loop")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrAsymmetricAdjacency is returned by [Graph.Validate] when the adjacency
	// lists disagree with each other. This indicates graph corruption.
	ErrAsymmetricAdjacency = errors.New("asymmetric adjacency")
)

// Edge is an undirected connection between two nodes of the same graph.
// A is always the smaller id of the pair.
type Edge struct {
	A, B NodeID
}

func newEdge(a, b NodeID) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Other returns the endpoint of e that is not id.
func (e Edge) Other(id NodeID) NodeID {
	if e.A == id {
		return e.B
	}
	return e.A
}

// Graph is the topology of one voltage level: an undirected multigraph-free
// arena of [Node] values addressed by [NodeID].
//
// Removed nodes leave a nil tombstone in the arena so that ids handed out
// earlier stay valid as identifiers (they simply stop resolving). Adjacency
// lists are kept sorted by id, which makes every traversal deterministic for a
// given construction order.
//
// The zero value is not usable - use [New] to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	id     string
	nodes  []*Node
	adj    [][]NodeID
	byName map[string]NodeID
	edges  int
}

// New creates an empty voltage-level graph identified by id.
func New(id string) *Graph {
	return &Graph{id: id, byName: make(map[string]NodeID)}
}

// ID returns the voltage-level identifier.
func (g *Graph) ID() string { return g.id }

// AddNode copies n into the arena and returns its id. The returned id is also
// stored in the node's ID field. An empty ComponentType is filled in from the
// node kind and Cell is reset to -1.
//
// Returns [ErrInvalidNodeName] or [ErrDuplicateNode].
func (g *Graph) AddNode(n Node) (NodeID, error) {
	if n.Name == "" {
		return NoNode, ErrInvalidNodeName
	}
	if _, ok := g.byName[n.Name]; ok {
		return NoNode, fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
	}
	id := NodeID(len(g.nodes))
	node := n
	node.ID = id
	node.Cell = -1
	if node.ComponentType == "" {
		node.ComponentType = defaultComponentType(&node)
	}
	g.nodes = append(g.nodes, &node)
	g.adj = append(g.adj, nil)
	g.byName[node.Name] = id
	return id, nil
}

// MustAdd is like AddNode but panics on error. It is meant for programmatic
// construction of known-good graphs such as test fixtures.
func (g *Graph) MustAdd(n Node) NodeID {
	id, err := g.AddNode(n)
	if err != nil {
		panic(err)
	}
	return id
}

// AddUnique adds n, renaming it with a numeric suffix if its name is taken.
// The refiner uses it for synthetic nodes whose names are derived from their
// neighbors.
func (g *Graph) AddUnique(n Node) NodeID {
	base := n.Name
	for i := 1; ; i++ {
		if _, taken := g.byName[n.Name]; !taken {
			break
		}
		n.Name = fmt.Sprintf("%s_%d", base, i)
	}
	return g.MustAdd(n)
}

// AddEdge connects a and b. Adding an edge that already exists is a no-op.
//
// Returns [ErrUnknownNode] if either endpoint is not a live node and
// [ErrSelfLoop] if a == b.
func (g *Graph) AddEdge(a, b NodeID) error {
	if !g.live(a) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, a)
	}
	if !g.live(b) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, b)
	}
	if a == b {
		return fmt.Errorf("%w: %s", ErrSelfLoop, g.nodes[a].Name)
	}
	if g.HasEdge(a, b) {
		return nil
	}
	g.adj[a] = insertSorted(g.adj[a], b)
	g.adj[b] = insertSorted(g.adj[b], a)
	g.edges++
	return nil
}

// Connect is like AddEdge but panics on error.
func (g *Graph) Connect(a, b NodeID) {
	if err := g.AddEdge(a, b); err != nil {
		panic(err)
	}
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b NodeID) bool {
	if !g.live(a) || !g.live(b) {
		return false
	}
	_, ok := slices.BinarySearch(g.adj[a], b)
	return ok
}

// RemoveEdge disconnects a and b. Missing edges are ignored.
func (g *Graph) RemoveEdge(a, b NodeID) {
	if !g.HasEdge(a, b) {
		return
	}
	g.adj[a] = removeSorted(g.adj[a], b)
	g.adj[b] = removeSorted(g.adj[b], a)
	g.edges--
}

// RemoveNode deletes the node and all its incident edges. The id becomes a
// tombstone and will not be reused.
func (g *Graph) RemoveNode(id NodeID) {
	if !g.live(id) {
		return
	}
	for _, nb := range slices.Clone(g.adj[id]) {
		g.RemoveEdge(id, nb)
	}
	delete(g.byName, g.nodes[id].Name)
	g.nodes[id] = nil
	g.adj[id] = nil
}

// Substitute moves every edge of old onto repl and removes old. Edges that
// would become self loops or duplicates are dropped.
func (g *Graph) Substitute(old, repl NodeID) error {
	if !g.live(old) || !g.live(repl) {
		return fmt.Errorf("%w: substitute %d by %d", ErrUnknownNode, old, repl)
	}
	for _, nb := range slices.Clone(g.adj[old]) {
		if nb != repl {
			_ = g.AddEdge(repl, nb)
		}
	}
	g.RemoveNode(old)
	return nil
}

// InsertBetween replaces the edge a-b by a-n-b where n is a new node. The new
// node's name is made unique with [Graph.AddUnique].
func (g *Graph) InsertBetween(a, b NodeID, n Node) (NodeID, error) {
	if !g.HasEdge(a, b) {
		return NoNode, fmt.Errorf("%w: no edge between %d and %d", ErrUnknownNode, a, b)
	}
	id := g.AddUnique(n)
	g.RemoveEdge(a, b)
	g.Connect(a, id)
	g.Connect(id, b)
	return id, nil
}

// Bridge removes a degree-2 node and connects its two neighbors directly.
// It reports false and leaves the graph untouched for any other degree.
func (g *Graph) Bridge(id NodeID) bool {
	if g.Degree(id) != 2 {
		return false
	}
	a, b := g.adj[id][0], g.adj[id][1]
	g.RemoveNode(id)
	_ = g.AddEdge(a, b)
	return true
}

// Node returns the node with the given id, or nil if it does not exist.
func (g *Graph) Node(id NodeID) *Node {
	if !g.live(id) {
		return nil
	}
	return g.nodes[id]
}

// Lookup returns the node with the given name.
func (g *Graph) Lookup(name string) (*Node, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Name returns the name of the node or an empty string.
func (g *Graph) Name(id NodeID) string {
	if n := g.Node(id); n != nil {
		return n.Name
	}
	return ""
}

// Nodes returns the live nodes in id order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.byName))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// NodesOfKind returns the live nodes of kind k sorted by name.
func (g *Graph) NodesOfKind(k Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n != nil && n.Kind == k {
			out = append(out, n)
		}
	}
	SortByName(out)
	return out
}

// Buses returns the busbar sections sorted by name.
func (g *Graph) Buses() []*Node { return g.NodesOfKind(KindBus) }

// Adjacent returns the neighbors of id sorted by id. The slice must not be
// modified by the caller.
func (g *Graph) Adjacent(id NodeID) []NodeID {
	if !g.live(id) {
		return nil
	}
	return g.adj[id]
}

// AdjacentByName returns the neighbors of id sorted by name.
func (g *Graph) AdjacentByName(id NodeID) []NodeID {
	out := slices.Clone(g.Adjacent(id))
	g.SortIDs(out)
	return out
}

// Degree returns the number of neighbors of id.
func (g *Graph) Degree(id NodeID) int { return len(g.Adjacent(id)) }

// Edges returns every edge once, ordered by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for a, nbs := range g.adj {
		for _, b := range nbs {
			if NodeID(a) < b {
				out = append(out, Edge{A: NodeID(a), B: b})
			}
		}
	}
	return out
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return len(g.byName) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// SortIDs sorts ids in place by node name.
func (g *Graph) SortIDs(ids []NodeID) {
	slices.SortFunc(ids, func(a, b NodeID) int {
		return strings.Compare(g.Name(a), g.Name(b))
	})
}

// Validate checks the structural integrity of the graph: every edge endpoint
// must be a live node and adjacency must be symmetric. All problems are
// reported together.
func (g *Graph) Validate() error {
	var result error
	for a, nbs := range g.adj {
		if g.nodes[a] == nil {
			if len(nbs) > 0 {
				result = multierror.Append(result, fmt.Errorf("%w: removed node %d still has neighbors", ErrInvalidEdgeEndpoint, a))
			}
			continue
		}
		for _, b := range nbs {
			if !g.live(b) {
				result = multierror.Append(result, fmt.Errorf("%w: %s -> %d", ErrInvalidEdgeEndpoint, g.nodes[a].Name, b))
				continue
			}
			if _, ok := slices.BinarySearch(g.adj[b], NodeID(a)); !ok {
				result = multierror.Append(result, fmt.Errorf("%w: %s -> %s", ErrAsymmetricAdjacency, g.nodes[a].Name, g.nodes[b].Name))
			}
		}
	}
	return result
}

// Clone returns a deep copy of the graph. Node ids are preserved.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		id:     g.id,
		nodes:  make([]*Node, len(g.nodes)),
		adj:    make([][]NodeID, len(g.adj)),
		byName: make(map[string]NodeID, len(g.byName)),
		edges:  g.edges,
	}
	for i, n := range g.nodes {
		if n != nil {
			cp := *n
			c.nodes[i] = &cp
			c.byName[n.Name] = NodeID(i)
		}
		c.adj[i] = slices.Clone(g.adj[i])
	}
	return c
}

func (g *Graph) live(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && g.nodes[id] != nil
}

// SortByName sorts nodes in place by name.
func SortByName(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.Name, b.Name) })
}

func insertSorted(s []NodeID, v NodeID) []NodeID {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

func removeSorted(s []NodeID, v NodeID) []NodeID {
	i, ok := slices.BinarySearch(s, v)
	if !ok {
		return s
	}
	return slices.Delete(s, i, i+1)
}
