// Package io saves mind maps to snapshot files and loads them back.
//
// # Overview
//
// A snapshot is a complete copy of a [mindmap.Graph]: every node with its
// label, style and visibility flags, and every edge. Importing a snapshot
// replaces the graph wholesale; there is no merging.
//
// # Format
//
// Snapshots are JSON by default and YAML when the file name ends in .yaml or
// .yml. Both encodings share the same field names:
//
//	{
//	  "version": 1,
//	  "nodes": [
//	    {"id": 1, "label": "Start", "style": {"color": "#FF7518"}, "hidden": false, "collapsed": false},
//	    {"id": 2, "label": "Idea", "hidden": false, "collapsed": false}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 2, "hidden": false}
//	  ]
//	}
//
// Labels are stored as plain text. The collapse marker is never part of a
// stored label; the collapsed field records the state instead.
//
// # Legacy Snapshots
//
// Files without a collapsed field are still accepted. A label that ends in
// the graph's marker glyph is read as a collapsed node and the glyph is
// removed. A visible node whose outgoing edges are all hidden is also read
// as collapsed. Top-level color and font keys on a node are folded into its
// style.
//
// # Errors
//
// [Import] validates the whole snapshot before it touches the graph. A
// missing nodes collection, a node without an id, a duplicate id, or an edge
// pointing at an unknown node all fail with MALFORMED_SNAPSHOT and leave the
// graph as it was. Read failures carry IO_ERROR and missing files
// FILE_NOT_FOUND.
//
// # Files
//
// [ExportFile] writes through a temporary file and a rename so that a
// watcher never sees a partial snapshot. [ImportFile] reads and imports in
// one step.
//
// [mindmap.Graph]: github.com/tschomay/mindweb/pkg/mindmap.Graph
package io
