// Package pkg holds the libraries behind mindweb, a collapsible mind map
// editor.
//
// # Layout
//
//  1. [mindmap] - the graph, visibility rules and mutations
//  2. [io] - JSON and YAML snapshots
//  3. [session] - one open map driven by host events, with file watching
//  4. [render] and [pipeline] - Graphviz output behind a render cache
//  5. [cache] - file, Redis and MongoDB cache backends
//  6. [server] - HTTP API for browser front ends
//  7. [config], [errors], [observability] and [buildinfo] - shared plumbing
//
// # Data flow
//
//	snapshot file
//	     ↓
//	[io] decode, derive collapse state
//	     ↓
//	[session] ← select, toggle, add, remove, relabel
//	     ↓
//	[mindmap.View]
//	     ↓
//	[pipeline] DOT → cache → SVG/PNG
//
// # Quick start
//
//	sess := session.New(session.WithGraph(mindmap.Seed()))
//	res, err := sess.Handle(ctx, session.Event{Kind: session.EventToggle, NodeID: 2})
//	if err != nil {
//	    return err
//	}
//	for _, n := range res.View.Visible().Nodes {
//	    fmt.Println(n.ID, n.Label)
//	}
package pkg
