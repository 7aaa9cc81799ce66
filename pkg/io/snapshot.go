package io

import (
	"maps"
	"strings"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
)

// Version is the snapshot format written by [Export]. Snapshots without a
// version field are read as legacy documents.
const Version = 1

// Snapshot is the complete, serializable state of a mind map.
type Snapshot struct {
	Version int            `json:"version,omitempty" yaml:"version,omitempty"`
	Nodes   []SnapshotNode `json:"nodes" yaml:"nodes"`
	Edges   []SnapshotEdge `json:"edges" yaml:"edges"`
}

// SnapshotNode is a node entry. Pointer fields distinguish a missing value
// from its zero value.
type SnapshotNode struct {
	ID        *int           `json:"id" yaml:"id"`
	Label     string         `json:"label" yaml:"label"`
	Style     map[string]any `json:"style,omitempty" yaml:"style,omitempty"`
	Hidden    bool           `json:"hidden" yaml:"hidden"`
	Collapsed *bool          `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`

	// Shorthand presentation keys found in hand-written and legacy files.
	// They are folded into Style on import.
	Color any `json:"color,omitempty" yaml:"color,omitempty"`
	Font  any `json:"font,omitempty" yaml:"font,omitempty"`
}

// SnapshotEdge is an edge entry.
type SnapshotEdge struct {
	From   *int `json:"from" yaml:"from"`
	To     *int `json:"to" yaml:"to"`
	Hidden bool `json:"hidden" yaml:"hidden"`
}

// Export captures g as a snapshot. It only reads from g.
func Export(g *mindmap.Graph) Snapshot {
	nodes := g.Nodes()
	edges := g.Edges()
	snap := Snapshot{
		Version: Version,
		Nodes:   make([]SnapshotNode, 0, len(nodes)),
		Edges:   make([]SnapshotEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		id, collapsed := int(n.ID), n.Collapsed
		sn := SnapshotNode{
			ID:        &id,
			Label:     n.Label,
			Hidden:    n.Hidden,
			Collapsed: &collapsed,
		}
		if len(n.Style) > 0 {
			sn.Style = map[string]any(n.Style)
		}
		snap.Nodes = append(snap.Nodes, sn)
	}
	for _, e := range edges {
		from, to := int(e.From), int(e.To)
		snap.Edges = append(snap.Edges, SnapshotEdge{From: &from, To: &to, Hidden: e.Hidden})
	}
	return snap
}

// Import replaces the contents of g with snap.
//
// The snapshot is validated completely before g is touched; on any error g is
// unchanged and the error carries the MALFORMED_SNAPSHOT code. Hidden flags
// are taken verbatim. Collapsed flags missing from legacy snapshots are
// derived from the label marker and the stored edge flags.
func Import(g *mindmap.Graph, snap Snapshot) error {
	nodes, edges, err := Decode(snap, g.Marker())
	if err != nil {
		return err
	}
	if err := g.Load(nodes, edges); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeMalformedSnapshot, err, "load snapshot")
	}
	return nil
}

// Decode validates snap and converts it to graph nodes and edges, using
// marker to interpret legacy labels.
func Decode(snap Snapshot, marker string) ([]mindmap.Node, []mindmap.Edge, error) {
	if snap.Nodes == nil {
		return nil, nil, malformed("snapshot has no nodes collection")
	}
	if snap.Version < 0 || snap.Version > Version {
		return nil, nil, malformed("unsupported snapshot version %d", snap.Version)
	}

	nodes := make([]mindmap.Node, 0, len(snap.Nodes))
	seen := make(map[mindmap.NodeID]struct{}, len(snap.Nodes))
	for i, sn := range snap.Nodes {
		if sn.ID == nil {
			return nil, nil, malformed("node #%d has no id", i)
		}
		id := mindmap.NodeID(*sn.ID)
		if id <= 0 {
			return nil, nil, malformed("node #%d has invalid id %d", i, id)
		}
		if _, dup := seen[id]; dup {
			return nil, nil, malformed("duplicate node id %d", id)
		}
		if err := mwerrors.ValidateLabel(sn.Label); err != nil {
			return nil, nil, mwerrors.Wrap(mwerrors.ErrCodeMalformedSnapshot, err, "node %d", id)
		}
		seen[id] = struct{}{}
		nodes = append(nodes, mindmap.Node{
			ID:     id,
			Label:  sn.Label,
			Style:  styleOf(sn),
			Hidden: sn.Hidden,
		})
	}

	edges := make([]mindmap.Edge, 0, len(snap.Edges))
	for i, se := range snap.Edges {
		if se.From == nil || se.To == nil {
			return nil, nil, malformed("edge #%d is missing an endpoint", i)
		}
		from, to := mindmap.NodeID(*se.From), mindmap.NodeID(*se.To)
		if _, ok := seen[from]; !ok {
			return nil, nil, malformed("edge %d->%d references missing node %d", from, to, from)
		}
		if _, ok := seen[to]; !ok {
			return nil, nil, malformed("edge %d->%d references missing node %d", from, to, to)
		}
		edges = append(edges, mindmap.Edge{From: from, To: to, Hidden: se.Hidden})
	}

	legacy := deriveCollapsed(snap, edges, marker)
	for i, sn := range snap.Nodes {
		if sn.Collapsed != nil {
			nodes[i].Collapsed = *sn.Collapsed
			continue
		}
		c := legacy[nodes[i].ID]
		nodes[i].Collapsed = c.collapsed
		nodes[i].Label = c.label
	}
	return nodes, edges, nil
}

type derived struct {
	label     string
	collapsed bool
}

// deriveCollapsed decides the collapsed state of nodes that carry no
// collapsed field. A label ending in marker is collapsed and loses the
// marker. Otherwise a visible node whose outgoing edges are all hidden, and
// which has at least one, is collapsed. Everything else is expanded.
func deriveCollapsed(snap Snapshot, edges []mindmap.Edge, marker string) map[mindmap.NodeID]derived {
	out := make(map[mindmap.NodeID]int)
	shown := make(map[mindmap.NodeID]int)
	for _, e := range edges {
		out[e.From]++
		if !e.Hidden {
			shown[e.From]++
		}
	}

	result := make(map[mindmap.NodeID]derived)
	for _, sn := range snap.Nodes {
		if sn.Collapsed != nil || sn.ID == nil {
			continue
		}
		id := mindmap.NodeID(*sn.ID)
		d := derived{label: sn.Label}
		switch {
		case marker != "" && strings.HasSuffix(sn.Label, marker):
			d.label = strings.TrimSuffix(sn.Label, marker)
			d.collapsed = true
		case !sn.Hidden && out[id] > 0 && shown[id] == 0:
			d.collapsed = true
		}
		result[id] = d
	}
	return result
}

func styleOf(sn SnapshotNode) mindmap.Style {
	style := mindmap.Style(maps.Clone(sn.Style))
	if style == nil {
		style = mindmap.Style{}
	}
	if _, ok := style["color"]; !ok && sn.Color != nil {
		style["color"] = sn.Color
	}
	if _, ok := style["font"]; !ok && sn.Font != nil {
		style["font"] = sn.Font
	}
	return style
}

func malformed(format string, args ...any) error {
	return mwerrors.New(mwerrors.ErrCodeMalformedSnapshot, format, args...)
}
