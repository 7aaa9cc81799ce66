package mindmap

import "maps"

// NodeView is the presentation form of a node. Label already carries the
// collapse marker when the node's subtree is collapsed.
type NodeView struct {
	ID        NodeID `json:"id"`
	Label     string `json:"label"`
	Style     Style  `json:"style,omitempty"`
	Hidden    bool   `json:"hidden"`
	Collapsed bool   `json:"collapsed"`
}

// EdgeView is the presentation form of an edge.
type EdgeView struct {
	From   NodeID `json:"from"`
	To     NodeID `json:"to"`
	Hidden bool   `json:"hidden"`
}

// View is a detached copy of the graph for renderers. Nodes are sorted by ID
// and edges keep insertion order. Changing a View never affects the Graph.
type View struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// View returns the current node and edge collections for rendering.
func (g *Graph) View() View {
	v := View{
		Nodes: make([]NodeView, 0, len(g.nodes)),
		Edges: make([]EdgeView, 0, len(g.edges)),
	}
	for _, id := range g.sortedIDs() {
		n := g.nodes[id]
		label := n.Label
		if n.Collapsed && len(g.outgoing[id]) > 0 {
			label = n.DisplayLabel(g.marker)
		}
		v.Nodes = append(v.Nodes, NodeView{
			ID:        n.ID,
			Label:     label,
			Style:     maps.Clone(n.Style),
			Hidden:    n.Hidden,
			Collapsed: n.Collapsed,
		})
	}
	for _, e := range g.edges {
		v.Edges = append(v.Edges, EdgeView(e))
	}
	return v
}

// Visible returns a copy of v without hidden nodes and edges.
func (v View) Visible() View {
	out := View{Nodes: []NodeView{}, Edges: []EdgeView{}}
	for _, n := range v.Nodes {
		if !n.Hidden {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range v.Edges {
		if !e.Hidden {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// Node returns the view of the node with the given ID.
func (v View) Node(id NodeID) (NodeView, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// NodeRecords returns the nodes as plain attribute maps, for adapters that
// consume untyped data.
func (v View) NodeRecords() []map[string]any {
	recs := make([]map[string]any, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		rec := map[string]any{
			"id":        int(n.ID),
			"label":     n.Label,
			"hidden":    n.Hidden,
			"collapsed": n.Collapsed,
		}
		for k, val := range n.Style {
			if _, taken := rec[k]; !taken {
				rec[k] = val
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// EdgeRecords returns the edges as plain attribute maps.
func (v View) EdgeRecords() []map[string]any {
	recs := make([]map[string]any, 0, len(v.Edges))
	for _, e := range v.Edges {
		recs = append(recs, map[string]any{
			"from":   int(e.From),
			"to":     int(e.To),
			"hidden": e.Hidden,
		})
	}
	return recs
}
