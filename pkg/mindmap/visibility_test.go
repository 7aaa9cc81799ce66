package mindmap

import (
	"reflect"
	"testing"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

func hiddenSet(g *Graph) map[NodeID]bool {
	out := make(map[NodeID]bool)
	for _, n := range g.Nodes() {
		out[n.ID] = n.Hidden
	}
	return out
}

func label(t *testing.T, g *Graph, id NodeID) string {
	t.Helper()
	n, ok := g.View().Node(id)
	if !ok {
		t.Fatalf("node %d missing from view", id)
	}
	return n.Label
}

func TestCollapseExpandScenario(t *testing.T) {
	g := scenario(t)

	if err := g.Collapse(2); err != nil {
		t.Fatalf("Collapse(2): %v", err)
	}
	want := map[NodeID]bool{1: false, 2: false, 3: true, 4: true}
	if got := hiddenSet(g); !reflect.DeepEqual(got, want) {
		t.Errorf("after Collapse(2) hidden = %v, want %v", got, want)
	}
	if got := label(t, g, 2); got != "A*" {
		t.Errorf("label after Collapse(2) = %q, want %q", got, "A*")
	}
	for _, e := range g.Edges() {
		wantHidden := e.From == 2
		if e.Hidden != wantHidden {
			t.Errorf("edge %d->%d hidden = %v, want %v", e.From, e.To, e.Hidden, wantHidden)
		}
	}

	if err := g.Expand(2); err != nil {
		t.Fatalf("Expand(2): %v", err)
	}
	for id, hidden := range hiddenSet(g) {
		if hidden {
			t.Errorf("node %d hidden after Expand(2)", id)
		}
	}
	if got := label(t, g, 2); got != "A" {
		t.Errorf("label after Expand(2) = %q, want %q", got, "A")
	}
	for _, e := range g.Edges() {
		if e.Hidden {
			t.Errorf("edge %d->%d hidden after Expand(2)", e.From, e.To)
		}
	}
}

func TestCollapseIsIdempotent(t *testing.T) {
	once := scenario(t)
	_ = once.Collapse(2)

	twice := scenario(t)
	_ = twice.Collapse(2)
	_ = twice.Collapse(2)

	if !reflect.DeepEqual(once.View(), twice.View()) {
		t.Errorf("Collapse twice differs from once:\n once: %+v\ntwice: %+v", once.View(), twice.View())
	}
	if got := label(t, twice, 2); got != "A*" {
		t.Errorf("label after double collapse = %q", got)
	}
}

func TestLeafToggleIsNoOp(t *testing.T) {
	g := scenario(t)
	before := g.View()

	if err := g.Collapse(3); err != nil {
		t.Fatalf("Collapse(3): %v", err)
	}
	if !reflect.DeepEqual(before, g.View()) {
		t.Error("Collapse on a leaf changed the graph")
	}
	if err := g.Expand(3); err != nil {
		t.Fatalf("Expand(3): %v", err)
	}
	if !reflect.DeepEqual(before, g.View()) {
		t.Error("Expand on a leaf changed the graph")
	}
	collapsed, err := g.Toggle(4)
	if err != nil || collapsed {
		t.Errorf("Toggle(leaf) = %v, %v", collapsed, err)
	}
}

// A and X both point at B. B must stay hidden while A is collapsed, even after
// X is expanded.
func TestPartialReveal(t *testing.T) {
	const (
		root NodeID = 1
		a    NodeID = 2
		x    NodeID = 3
		b    NodeID = 4
		c    NodeID = 5
	)
	g := New()
	for id := root; id <= c; id++ {
		_ = g.AddNode(Node{ID: id})
	}
	for _, e := range []Edge{{From: root, To: a}, {From: root, To: x}, {From: a, To: b}, {From: x, To: b}, {From: b, To: c}} {
		_ = g.AddEdge(e)
	}

	_ = g.Collapse(a)
	_ = g.Collapse(x)
	if g.IsVisible(b) || g.IsVisible(c) {
		t.Fatal("b and c should be hidden after collapsing a and x")
	}

	_ = g.Expand(x)
	if g.IsVisible(b) {
		t.Error("b revealed while a is still collapsed")
	}
	if g.IsVisible(c) {
		t.Error("c revealed while a is still collapsed")
	}
	for _, e := range g.Edges() {
		if e.To == b && !e.Hidden {
			t.Errorf("edge %d->%d visible while b is hidden", e.From, e.To)
		}
	}

	_ = g.Expand(a)
	if !g.IsVisible(b) || !g.IsVisible(c) {
		t.Error("b and c should be visible once a and x are expanded")
	}
}

func TestExpandKeepsNestedCollapse(t *testing.T) {
	g := scenario(t)
	_, _ = g.AddChild(3, "deep")
	_ = g.Collapse(3)
	_ = g.Collapse(2)
	_ = g.Expand(2)

	if !g.IsVisible(3) {
		t.Error("3 should be visible after Expand(2)")
	}
	if g.IsVisible(5) {
		t.Error("5 should stay hidden under collapsed 3")
	}
	if got := label(t, g, 3); got != "B*" {
		t.Errorf("label of 3 = %q, want B*", got)
	}
}

func TestToggle(t *testing.T) {
	g := scenario(t)

	collapsed, err := g.Toggle(2)
	if err != nil || !collapsed {
		t.Fatalf("first Toggle(2) = %v, %v", collapsed, err)
	}
	collapsed, err = g.Toggle(2)
	if err != nil || collapsed {
		t.Fatalf("second Toggle(2) = %v, %v", collapsed, err)
	}
	if !g.IsVisible(3) {
		t.Error("3 hidden after two toggles")
	}
}

func TestVisibilityUnknownNode(t *testing.T) {
	g := scenario(t)
	before := g.View()

	ops := map[string]func() error{
		"Collapse": func() error { return g.Collapse(99) },
		"Expand":   func() error { return g.Expand(99) },
		"Toggle":   func() error { _, err := g.Toggle(99); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !mwerrors.Is(err, mwerrors.ErrCodeNodeNotFound) {
				t.Errorf("%s(99) error = %v, want NODE_NOT_FOUND", name, err)
			}
			if !reflect.DeepEqual(before, g.View()) {
				t.Errorf("%s(99) modified the graph", name)
			}
		})
	}
	if g.IsVisible(99) {
		t.Error("IsVisible(99) = true")
	}
}
