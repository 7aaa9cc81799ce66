package render_test

import (
	"fmt"

	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/render"
)

func ExampleToDOT() {
	g := mindmap.New()
	_ = g.AddNode(mindmap.Node{ID: 1, Label: "Idea"})
	_, _ = g.AddChild(1, "Detail")
	_ = g.Collapse(1)

	fmt.Print(render.ToDOT(g.View(), render.Options{}))
	// Output:
	// digraph mindmap {
	//   rankdir=TB;
	//   bgcolor="transparent";
	//   node [shape=box, style="rounded,filled", fontname="Helvetica", fontsize=14, margin="0.2,0.1"];
	//   edge [arrowsize=0.7];
	//   ranksep=0.5;
	//   nodesep=0.3;
	//
	//   n1 [label="Idea*", fillcolor="#97C2FC", fontcolor="#343434"];
	//
	// }
}
