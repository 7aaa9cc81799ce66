package mindmap

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is not
	// positive. Allocated IDs start at 1.
	ErrInvalidNodeID = errors.New("node ID must be positive")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates store corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// DefaultMarker is the glyph appended to the label of a collapsed node when
// it is displayed.
const DefaultMarker = "*"

// NodeID identifies a node for the lifetime of a session.
type NodeID int

// Style holds presentation hints such as color and font. The store treats it
// as opaque and passes it through unchanged.
type Style map[string]any

// DefaultStyle returns the style given to nodes created by [Graph.AddChild].
func DefaultStyle() Style {
	return Style{
		"color": "#97C2FC",
		"font":  map[string]any{"color": "#343434"},
	}
}

// Node is a labeled vertex of the mind map.
//
// Collapsed records that the user asked to hide this node's children. It is
// the node's expansion state and lives and dies with the node. Hidden is
// derived from the Collapsed flags of the node's ancestors and is
// re-established by every graph operation.
type Node struct {
	ID        NodeID
	Label     string // plain text, never carries the collapse marker
	Style     Style  // presentation hints (never nil after AddNode)
	Hidden    bool
	Collapsed bool
}

// Expanded reports whether the user wants to see this node's direct children.
func (n Node) Expanded() bool { return !n.Collapsed }

// DisplayLabel returns the label as it should be rendered: the plain label
// followed by marker when the node is collapsed.
func (n Node) DisplayLabel(marker string) string {
	if n.Collapsed {
		return n.Label + marker
	}
	return n.Label
}

// Edge is a directed parent→child relationship.
type Edge struct {
	From   NodeID
	To     NodeID
	Hidden bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithMarker sets the collapse marker glyph used by [Graph.View].
func WithMarker(marker string) Option {
	return func(g *Graph) { g.marker = marker }
}

// Graph is the canonical store of nodes and edges for one open mind map.
//
// Nodes may have several parents, so the structure is a general directed
// graph rather than a tree. Cycles are tolerated; every traversal is bounded
// by a visited set.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[NodeID]*Node
	edges    []Edge
	outgoing map[NodeID][]NodeID // nodeID -> children IDs
	incoming map[NodeID][]NodeID // nodeID -> parent IDs
	nextID   NodeID
	marker   string
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{marker: DefaultMarker}
	for _, opt := range opts {
		opt(g)
	}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.nodes = make(map[NodeID]*Node)
	g.edges = nil
	g.outgoing = make(map[NodeID][]NodeID)
	g.incoming = make(map[NodeID][]NodeID)
	g.nextID = 1
}

// Marker returns the collapse marker glyph.
func (g *Graph) Marker() string { return g.marker }

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the ID is not
// positive, or ErrDuplicateNodeID if a node with the same ID already exists.
// The node's Style is initialized to an empty map if nil.
//
// The ID allocator is advanced past n.ID so that [Graph.NextID] never hands
// out an ID that is or was in use.
func (g *Graph) AddNode(n Node) error {
	if n.ID <= 0 {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Style == nil {
		n.Style = Style{}
	}
	node := &n
	g.nodes[node.ID] = node
	if node.ID >= g.nextID {
		g.nextID = node.ID + 1
	}
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist.
//
// Adding a parent→child pair that is already present is a no-op: the store
// never holds two edges with the same endpoints.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(g.outgoing[e.From], e.To) {
		return nil
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Clear removes every node and edge and resets the ID allocator.
func (g *Graph) Clear() { g.reset() }

// Load replaces the whole graph with nodes and edges, taking their Hidden
// and Collapsed flags as given. The ID allocator restarts above the largest
// loaded ID. If any node or edge is rejected the graph is left unchanged.
func (g *Graph) Load(nodes []Node, edges []Edge) error {
	fresh := New(WithMarker(g.marker))
	for _, n := range nodes {
		if err := fresh.AddNode(n); err != nil {
			return fmt.Errorf("node %d: %w", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := fresh.AddEdge(e); err != nil {
			return fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
		}
	}
	*g = *fresh
	return nil
}

// NextID returns the ID the next [Graph.AddChild] will allocate. It is
// strictly greater than every ID that has been added since the last Clear.
func (g *Graph) NextID() NodeID { return g.nextID }

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node with the given ID and true, or the zero
// Node and false if not found.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return cloneNode(n), true
}

// Nodes returns copies of all nodes sorted by ID.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for _, id := range g.sortedIDs() {
		nodes = append(nodes, cloneNode(g.nodes[id]))
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of the node's direct children in insertion order.
// Returns nil if the node has no children or doesn't exist.
func (g *Graph) Children(id NodeID) []NodeID { return slices.Clone(g.outgoing[id]) }

// Parents returns the IDs of the node's direct parents in insertion order.
// Returns nil if the node has no parents or doesn't exist.
func (g *Graph) Parents(id NodeID) []NodeID { return slices.Clone(g.incoming[id]) }

// Roots returns the IDs of nodes with no incoming edges, sorted ascending.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for _, id := range g.sortedIDs() {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Validate checks store integrity and returns nil if every edge references
// existing nodes and the adjacency indexes agree with the edge list.
func (g *Graph) Validate() error {
	out := 0
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	for _, children := range g.outgoing {
		out += len(children)
	}
	if out != len(g.edges) {
		return ErrInvalidEdgeEndpoint
	}
	return nil
}

// removeNodes deletes every node in ids together with every edge incident to
// one of them. Edges are classified in a single pass and the adjacency
// indexes are rebuilt from the survivors. A surviving node left without
// children is no longer collapsed.
func (g *Graph) removeNodes(ids idSet) {
	orphaned := make(idSet)
	kept := g.edges[:0]
	for _, e := range g.edges {
		if !ids.has(e.From) && !ids.has(e.To) {
			kept = append(kept, e)
		} else if !ids.has(e.From) {
			orphaned[e.From] = struct{}{}
		}
	}
	g.edges = slices.Clip(kept)

	for id := range ids {
		delete(g.nodes, id)
	}

	g.outgoing = make(map[NodeID][]NodeID, len(g.nodes))
	g.incoming = make(map[NodeID][]NodeID, len(g.nodes))
	for _, e := range g.edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
		g.incoming[e.To] = append(g.incoming[e.To], e.From)
	}
	for id := range orphaned {
		if len(g.outgoing[id]) == 0 {
			g.nodes[id].Collapsed = false
		}
	}
}

func (g *Graph) sortedIDs() []NodeID {
	return slices.Sorted(maps.Keys(g.nodes))
}

func cloneNode(n *Node) Node {
	c := *n
	c.Style = maps.Clone(n.Style)
	return c
}
