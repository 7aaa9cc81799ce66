// Package mindmap holds the state of one open mind map: its nodes, the
// parent→child edges between them, and which parts of it are currently
// visible.
//
// # Overview
//
// A mind map is a rooted directed graph. Nodes are labeled and may have
// several parents, so the structure is a general graph rather than a tree.
// Every read and write goes through a [Graph], the single source of truth
// that renderers re-read after each change.
//
// # Basic Usage
//
//	g := mindmap.New()
//	_ = g.AddNode(mindmap.Node{ID: 1, Label: "Start"})
//	child, _ := g.AddChild(1, "Idea")
//	_, _ = g.Toggle(1) // collapse: child is now hidden
//
// # Visibility
//
// Each node is either expanded or collapsed ([Node.Collapsed]). A node is
// hidden exactly when one of its ancestors is collapsed. [Graph.Collapse]
// hides the whole subtree below a node. [Graph.Expand] reveals a descendant
// only when no node on any path leading to it is still collapsed, so a node
// reached through a second, collapsed parent stays hidden.
//
// The collapse marker shown next to collapsed labels is never stored in the
// label. [Graph.View] adds it at presentation time using the glyph set with
// [WithMarker].
//
// # Mutations
//
// [Graph.AddChild], [Graph.RemoveSubtree] and [Graph.RelabelNode] either
// apply completely or leave the graph untouched and return a coded error
// from package errors. Labels are reduced to plain text by [SanitizeLabel].
//
// # Concurrency
//
// Graph is not safe for concurrent use. Hosts serialize access, typically
// through a session that processes one event at a time.
package mindmap
