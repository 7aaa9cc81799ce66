package mindmap

import (
	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

// Collapse hides every descendant of id and marks id as collapsed.
//
// A node without descendants is left untouched. Collapsing an already
// collapsed node changes nothing, so repeated calls never accumulate markers.
func (g *Graph) Collapse(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return notFound(id)
	}
	desc := g.descendantSet(id)
	if len(desc) == 0 {
		return nil
	}
	for d := range desc {
		g.nodes[d].Hidden = true
	}
	n.Collapsed = true
	desc[id] = struct{}{}
	g.refreshEdges(desc)
	return nil
}

// Expand marks id as expanded and reveals the descendants that are no longer
// gated by a collapsed node.
//
// A descendant d is revealed only when every node between id and d is
// expanded and no other ancestor of d is collapsed. A node reached through a
// second, still collapsed parent therefore stays hidden until that parent is
// expanded too.
func (g *Graph) Expand(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return notFound(id)
	}
	desc := g.descendantSet(id)
	if len(desc) == 0 {
		return nil
	}
	n.Collapsed = false
	for d := range desc {
		g.nodes[d].Hidden = !g.revealable(id, d)
	}
	desc[id] = struct{}{}
	g.refreshEdges(desc)
	return nil
}

// Toggle collapses an expanded node or expands a collapsed one and returns
// the node's new collapsed state. Toggling a node without descendants is a
// no-op that reports the current state.
func (g *Graph) Toggle(id NodeID) (collapsed bool, err error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, notFound(id)
	}
	if n.Collapsed {
		err = g.Expand(id)
	} else {
		err = g.Collapse(id)
	}
	return n.Collapsed, err
}

// IsVisible reports whether id exists and is not hidden.
func (g *Graph) IsVisible(id NodeID) bool {
	n, ok := g.nodes[id]
	return ok && !n.Hidden
}

func (g *Graph) revealable(root, d NodeID) bool {
	for id := range g.betweenSet(root, d) {
		if g.nodes[id].Collapsed {
			return false
		}
	}
	for id := range g.ancestorSet(d) {
		if g.nodes[id].Collapsed {
			return false
		}
	}
	return true
}

// refreshEdges recomputes Hidden for every edge touching a node in ids. An
// edge is shown only when its source is visible and expanded and its target
// is visible.
func (g *Graph) refreshEdges(ids idSet) {
	for i := range g.edges {
		e := &g.edges[i]
		if !ids.has(e.From) && !ids.has(e.To) {
			continue
		}
		from, to := g.nodes[e.From], g.nodes[e.To]
		e.Hidden = from.Hidden || from.Collapsed || to.Hidden
	}
}

func notFound(id NodeID) error {
	return mwerrors.New(mwerrors.ErrCodeNodeNotFound, "node %d does not exist", id)
}
