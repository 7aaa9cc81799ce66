package mindmap

// Seed returns the demo map shown when no snapshot is available: a start node
// with two branches, one of which forks again.
func Seed(opts ...Option) *Graph {
	g := New(opts...)
	for _, n := range []Node{
		{ID: 1, Label: "Start", Style: seedStyle("#FF7518", "#FFFFFF")},
		{ID: 2, Label: "Haunted Node", Style: seedStyle("#551A8B", "#FFFFFF")},
		{ID: 3, Label: "Spider Node", Style: seedStyle("#000000", "#FFFFFF")},
		{ID: 4, Label: "Ghost Node", Style: seedStyle("#00FF00", "#000000")},
		{ID: 5, Label: "End", Style: seedStyle("#FF7518", "#FFFFFF")},
	} {
		_ = g.AddNode(n)
	}
	for _, e := range []Edge{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}, {From: 2, To: 5}} {
		_ = g.AddEdge(e)
	}
	return g
}

func seedStyle(color, font string) Style {
	return Style{"color": color, "font": map[string]any{"color": font}}
}
