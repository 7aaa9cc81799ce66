package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/mindmap"
)

func newSeeded() *Session {
	return New(WithGraph(mindmap.Seed()))
}

func TestNewSessionIDs(t *testing.T) {
	a, b := New(), New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("session ids %q and %q", a.ID(), b.ID())
	}
}

func TestHandleEvents(t *testing.T) {
	ctx := context.Background()
	s := newSeeded()

	res, err := s.Handle(ctx, Event{Kind: EventToggle, NodeID: 2})
	if err != nil || !res.Collapsed {
		t.Fatalf("toggle = %+v, %v", res, err)
	}
	if n, _ := res.View.Node(4); !n.Hidden {
		t.Error("node 4 visible in the returned view after collapsing 2")
	}

	res, err = s.Handle(ctx, Event{Kind: EventAddChild, NodeID: 3, Label: "<i>Web</i>"})
	if err != nil {
		t.Fatalf("add_child: %v", err)
	}
	if res.NodeID != 6 {
		t.Errorf("new node id = %d, want 6", res.NodeID)
	}
	if n, _ := res.View.Node(6); n.Label != "Web" {
		t.Errorf("new node label = %q", n.Label)
	}

	if _, err := s.Handle(ctx, Event{Kind: EventRelabel, NodeID: 6, Label: "Cobweb"}); err != nil {
		t.Fatalf("relabel: %v", err)
	}

	res, err = s.Handle(ctx, Event{Kind: EventRemove, NodeID: 3})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(res.Removed) != 2 {
		t.Errorf("removed = %v, want [3 6]", res.Removed)
	}
	if len(res.View.Nodes) != 4 {
		t.Errorf("view has %d nodes after remove", len(res.View.Nodes))
	}
}

func TestHandleSelect(t *testing.T) {
	ctx := context.Background()
	s := newSeeded()

	if _, ok := s.Selected(); ok {
		t.Error("new session has a selection")
	}
	if _, err := s.Handle(ctx, Event{Kind: EventSelect, NodeID: 4}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if id, ok := s.Selected(); !ok || id != 4 {
		t.Errorf("Selected() = %d, %v", id, ok)
	}
	if _, err := s.Handle(ctx, Event{Kind: EventSelect, NodeID: 99}); !mwerrors.Is(err, mwerrors.ErrCodeNodeNotFound) {
		t.Errorf("select missing node error = %v", err)
	}

	// Removing the selected node's ancestor clears the selection.
	if _, err := s.Handle(ctx, Event{Kind: EventRemove, NodeID: 2}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Selected(); ok {
		t.Error("selection survived removal of the selected node")
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		code mwerrors.Code
	}{
		{"toggle missing", Event{Kind: EventToggle, NodeID: 42}, mwerrors.ErrCodeNodeNotFound},
		{"add under missing", Event{Kind: EventAddChild, NodeID: 42, Label: "x"}, mwerrors.ErrCodeInvalidParent},
		{"remove missing", Event{Kind: EventRemove, NodeID: 42}, mwerrors.ErrCodeNodeNotFound},
		{"relabel missing", Event{Kind: EventRelabel, NodeID: 42}, mwerrors.ErrCodeNodeNotFound},
		{"unknown kind", Event{Kind: "drag"}, mwerrors.ErrCodeInvalidInput},
		{"import without path", Event{Kind: EventImport}, mwerrors.ErrCodeInvalidPath},
		{"export without path", Event{Kind: EventExport}, mwerrors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSeeded()
			before := s.View()
			_, err := s.Handle(context.Background(), tt.ev)
			if !mwerrors.Is(err, tt.code) {
				t.Fatalf("Handle error = %v, want %s", err, tt.code)
			}
			if len(s.View().Nodes) != len(before.Nodes) {
				t.Error("failed event modified the graph")
			}
		})
	}
}

func TestImportGate(t *testing.T) {
	ctx := context.Background()
	s := newSeeded()

	pr, pw := io.Pipe()
	results, err := s.StartImport(ctx, pr, pio.FormatJSON)
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	if !s.Importing() {
		t.Fatal("session not busy after StartImport")
	}

	for _, ev := range []Event{
		{Kind: EventToggle, NodeID: 2},
		{Kind: EventAddChild, NodeID: 1, Label: "x"},
		{Kind: EventRemove, NodeID: 2},
		{Kind: EventRelabel, NodeID: 1, Label: "x"},
	} {
		if _, err := s.Handle(ctx, ev); !mwerrors.Is(err, mwerrors.ErrCodeBusyImporting) {
			t.Errorf("%s during import: error = %v, want BUSY_IMPORTING", ev.Kind, err)
		}
	}
	if _, err := s.StartImport(ctx, strings.NewReader("{}"), pio.FormatJSON); !mwerrors.Is(err, mwerrors.ErrCodeBusyImporting) {
		t.Errorf("second StartImport error = %v", err)
	}
	if _, err := s.Handle(ctx, Event{Kind: EventSelect, NodeID: 1}); err != nil {
		t.Errorf("select during import: %v", err)
	}
	if len(s.View().Nodes) != 5 {
		t.Error("graph changed before the import completed")
	}

	replacement := mindmap.New()
	_ = replacement.AddNode(mindmap.Node{ID: 1, Label: "Fresh"})
	_, _ = replacement.AddChild(1, "Leaf")
	go func() {
		_ = pio.WriteJSON(pw, pio.Export(replacement))
		pw.Close()
	}()

	if err := s.CompleteImport(ctx, <-results); err != nil {
		t.Fatalf("CompleteImport: %v", err)
	}
	if s.Importing() {
		t.Error("session still busy after CompleteImport")
	}
	if v := s.View(); len(v.Nodes) != 2 || v.Nodes[0].Label != "Fresh" {
		t.Errorf("view after import = %+v", v)
	}
	if _, ok := s.Selected(); ok {
		t.Error("selection survived the import")
	}
	if _, err := s.Handle(ctx, Event{Kind: EventToggle, NodeID: 1}); err != nil {
		t.Errorf("toggle after import: %v", err)
	}
}

func TestImportFailureKeepsGraph(t *testing.T) {
	ctx := context.Background()
	s := newSeeded()

	err := s.Import(ctx, strings.NewReader(`{"nodes":[{"id":1}],"edges":[{"from":1,"to":9}]}`), pio.FormatJSON)
	if !mwerrors.Is(err, mwerrors.ErrCodeMalformedSnapshot) {
		t.Fatalf("Import error = %v", err)
	}
	if len(s.View().Nodes) != 5 {
		t.Error("failed import modified the graph")
	}
	if s.Importing() {
		t.Error("session still busy after a failed import")
	}
	if _, err := s.Handle(ctx, Event{Kind: EventToggle, NodeID: 2}); err != nil {
		t.Errorf("session unusable after failed import: %v", err)
	}
}

func TestCompleteImportWithoutStart(t *testing.T) {
	s := New()
	if err := s.CompleteImport(context.Background(), ImportResult{}); !mwerrors.Is(err, mwerrors.ErrCodeInvalidInput) {
		t.Errorf("CompleteImport error = %v", err)
	}
}

func TestSaveOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "map.yaml")

	s := newSeeded()
	_, _ = s.Handle(ctx, Event{Kind: EventToggle, NodeID: 2})
	res, err := s.Handle(ctx, Event{Kind: EventExport, Path: path})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Path != path || s.Path() != path {
		t.Errorf("export path = %q, session path = %q", res.Path, s.Path())
	}

	other := New()
	if _, err := other.Handle(ctx, Event{Kind: EventImport, Path: path}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if other.Path() != path {
		t.Errorf("Path() = %q after import", other.Path())
	}
	want, got := s.View(), other.View()
	if len(want.Nodes) != len(got.Nodes) || got.Nodes[1].Label != "Haunted Node*" {
		t.Errorf("reopened view = %+v", got)
	}

	// Saving with an empty path reuses the session file.
	if _, err := other.Handle(ctx, Event{Kind: EventAddChild, NodeID: 1, Label: "More"}); err != nil {
		t.Fatal(err)
	}
	if _, err := other.Save(ctx, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Open(ctx, path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.View().Nodes) != 6 {
		t.Errorf("reloaded %d nodes, want 6", len(s.View().Nodes))
	}
}

func TestOpenMissingFile(t *testing.T) {
	s := newSeeded()
	err := s.Open(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !mwerrors.Is(err, mwerrors.ErrCodeFileNotFound) {
		t.Errorf("Open error = %v", err)
	}
	if s.Importing() {
		t.Error("session busy after failed open")
	}
}

func TestReloadWithoutPath(t *testing.T) {
	if err := New().Reload(context.Background()); !mwerrors.Is(err, mwerrors.ErrCodeInvalidPath) {
		t.Errorf("Reload error = %v", err)
	}
}

func TestWatcherFollow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.json")
	if err := pio.ExportFile(mindmap.Seed(), path); err != nil {
		t.Fatal(err)
	}

	s := New(WithPath(path))
	if err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 4)
	go s.Follow(ctx, w, func(err error) { reloaded <- err })

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	small := mindmap.New()
	_ = small.AddNode(mindmap.Node{ID: 1, Label: "Only"})
	if err := pio.ExportFile(small, path); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the snapshot changed")
	}
	if n := len(s.View().Nodes); n != 1 {
		t.Errorf("view has %d nodes after reload, want 1", n)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestFollowSkipsOwnSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "map.json")
	s := New(WithGraph(mindmap.Seed()), WithPath(path))
	if _, err := s.Save(ctx, ""); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reloaded := make(chan error, 4)
	go s.Follow(fctx, w, func(err error) { reloaded <- err })

	if _, err := s.Handle(ctx, Event{Kind: EventSelect, NodeID: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(ctx, Event{Kind: EventToggle, NodeID: 2}); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		t.Fatalf("session reloaded after its own save (err = %v)", err)
	case <-time.After(300 * time.Millisecond):
	}
	if n, _ := s.View().Node(2); !n.Collapsed {
		t.Error("toggle after save was undone")
	}
	if id, ok := s.Selected(); !ok || id != 2 {
		t.Errorf("Selected() = %d, %v after save", id, ok)
	}
	if s.ChangedOnDisk() {
		t.Error("ChangedOnDisk() = true for the file the session wrote")
	}
}

func TestReloadKeepsSelection(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "map.json")
	s := New(WithGraph(mindmap.Seed()), WithPath(path))
	if _, err := s.Save(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(ctx, Event{Kind: EventSelect, NodeID: 3}); err != nil {
		t.Fatal(err)
	}

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if id, ok := s.Selected(); !ok || id != 3 {
		t.Errorf("Selected() = %d, %v after reload", id, ok)
	}

	// An external edit dropping the selected node clears the selection.
	small := mindmap.New()
	_ = small.AddNode(mindmap.Node{ID: 1, Label: "Only"})
	if err := pio.ExportFile(small, path); err != nil {
		t.Fatal(err)
	}
	if !s.ChangedOnDisk() {
		t.Error("external edit not detected")
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Selected(); ok {
		t.Error("selection of a removed node survived the reload")
	}
}
