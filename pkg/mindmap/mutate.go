package mindmap

import (
	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

// AddChild creates a node labeled label under parent and returns its ID.
//
// The new node gets [DefaultStyle], starts expanded, and receives an ID
// larger than any ID handed out since the last Clear. It is hidden when the
// parent is hidden or collapsed. The label is sanitized with [SanitizeLabel]
// before it is stored.
//
// Fails with INVALID_PARENT when parent does not exist and INVALID_INPUT when
// the sanitized label is rejected. The graph is unchanged on failure.
func (g *Graph) AddChild(parent NodeID, label string) (NodeID, error) {
	p, ok := g.nodes[parent]
	if !ok {
		return 0, mwerrors.New(mwerrors.ErrCodeInvalidParent, "parent node %d does not exist", parent)
	}
	label = SanitizeLabel(label)
	if err := mwerrors.ValidateLabel(label); err != nil {
		return 0, err
	}

	id := g.nextID
	hidden := p.Hidden || p.Collapsed
	if err := g.AddNode(Node{ID: id, Label: label, Style: DefaultStyle(), Hidden: hidden}); err != nil {
		return 0, mwerrors.Wrap(mwerrors.ErrCodeInternal, err, "add node %d", id)
	}
	if err := g.AddEdge(Edge{From: parent, To: id, Hidden: hidden}); err != nil {
		g.removeNodes(idSet{id: {}})
		return 0, mwerrors.Wrap(mwerrors.ErrCodeInternal, err, "add edge %d->%d", parent, id)
	}
	return id, nil
}

// RemoveSubtree deletes id, all of its descendants, and every edge incident to
// any of them. It returns the removed IDs sorted ascending.
//
// Descendants reachable through another parent outside the subtree are
// removed as well; no orphan survives. Removed IDs are never reallocated.
func (g *Graph) RemoveSubtree(id NodeID) ([]NodeID, error) {
	if !g.HasNode(id) {
		return nil, notFound(id)
	}
	doomed := g.descendantSet(id)
	doomed[id] = struct{}{}
	g.removeNodes(doomed)
	return doomed.sorted(), nil
}

// RelabelNode replaces the label of id with the sanitized form of label.
func (g *Graph) RelabelNode(id NodeID, label string) error {
	n, ok := g.nodes[id]
	if !ok {
		return notFound(id)
	}
	label = SanitizeLabel(label)
	if err := mwerrors.ValidateLabel(label); err != nil {
		return err
	}
	n.Label = label
	return nil
}
