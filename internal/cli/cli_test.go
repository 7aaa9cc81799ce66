package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tschomay/mindweb/pkg/config"
	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/render"
	"github.com/tschomay/mindweb/pkg/session"
)

func quietCLI(t *testing.T) *CLI {
	t.Helper()
	c := New(log.InfoLevel)
	c.Logger = newLogger(io.Discard, log.InfoLevel)
	return c
}

// captureOutput redirects status lines for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevErr := out, errOut
	out, errOut = &buf, &buf
	t.Cleanup(func() { out, errOut = prevOut, prevErr })
	return &buf
}

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	got, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "mindweb"); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}
}

func TestSnapshotPath(t *testing.T) {
	c := quietCLI(t)
	if got := c.snapshotPath(); got != defaultSnapshot {
		t.Errorf("default = %q", got)
	}
	c.Config.Snapshot = "from-config.yaml"
	if got := c.snapshotPath(); got != "from-config.yaml" {
		t.Errorf("config = %q", got)
	}
	c.file = "flag.json"
	if got := c.snapshotPath(); got != "flag.json" {
		t.Errorf("flag = %q", got)
	}
}

func TestOpenSessionFallsBackToSeed(t *testing.T) {
	c := quietCLI(t)
	c.file = filepath.Join(t.TempDir(), "missing.json")

	sess, err := c.openSession(context.Background())
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	if n := len(sess.View().Nodes); n != 5 {
		t.Errorf("seed has %d nodes, want 5", n)
	}
	if sess.Path() != c.file {
		t.Errorf("Path() = %q, want %q", sess.Path(), c.file)
	}
}

func TestOpenSessionMalformed(t *testing.T) {
	c := quietCLI(t)
	c.file = filepath.Join(t.TempDir(), "bad.json")
	if err := writeString(c.file, `{"nodes":[{"id":1}],"edges":[{"from":1,"to":7}]}`); err != nil {
		t.Fatal(err)
	}
	if _, err := c.openSession(context.Background()); !mwerrors.Is(err, mwerrors.ErrCodeMalformedSnapshot) {
		t.Errorf("openSession error = %v", err)
	}
}

func TestApplyPersists(t *testing.T) {
	ctx := context.Background()
	c := quietCLI(t)
	c.file = filepath.Join(t.TempDir(), "map.json")

	if _, _, err := c.apply(ctx, session.Event{Kind: session.EventToggle, NodeID: 2}); err != nil {
		t.Fatalf("apply toggle: %v", err)
	}
	_, res, err := c.apply(ctx, session.Event{Kind: session.EventAddChild, NodeID: 1, Label: "Attic"})
	if err != nil {
		t.Fatalf("apply add: %v", err)
	}
	if res.NodeID != 6 {
		t.Errorf("new id = %d", res.NodeID)
	}

	sess, err := c.openSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	v := sess.View()
	if len(v.Nodes) != 6 {
		t.Errorf("reopened %d nodes, want 6", len(v.Nodes))
	}
	if n, _ := v.Node(4); !n.Hidden {
		t.Error("node 4 visible after collapsing 2 and reopening")
	}
}

func TestApplyFailureDoesNotWrite(t *testing.T) {
	c := quietCLI(t)
	c.file = filepath.Join(t.TempDir(), "map.json")
	_, _, err := c.apply(context.Background(), session.Event{Kind: session.EventRemove, NodeID: 99})
	if !mwerrors.Is(err, mwerrors.ErrCodeNodeNotFound) {
		t.Fatalf("apply error = %v", err)
	}
	if exists(c.file) {
		t.Error("failed event created the snapshot file")
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := config.Write(cfgPath, config.Default()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	c := quietCLI(t)
	root := c.RootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootCommands(t *testing.T) {
	c := quietCLI(t)
	root := c.RootCommand()
	for _, name := range []string{"show", "toggle", "add", "remove", "relabel", "export", "import", "render", "serve", "browse", "cache", "init", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestEditCommands(t *testing.T) {
	status := captureOutput(t)
	path := filepath.Join(t.TempDir(), "map.yaml")

	if _, err := runRoot(t, "--file", path, "add", "3", "Cobweb", "<b>Corner</b>"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := runRoot(t, "--file", path, "toggle", "2"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := runRoot(t, "--file", path, "relabel", "1", "Front", "Door"); err != nil {
		t.Fatalf("relabel: %v", err)
	}

	snap, err := pio.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	labels := map[int]string{}
	for _, n := range snap.Nodes {
		labels[*n.ID] = n.Label
	}
	if labels[6] != "Cobweb Corner" || labels[1] != "Front Door" {
		t.Errorf("labels = %v", labels)
	}
	if !strings.Contains(status.String(), "Collapsed") {
		t.Errorf("status output = %q", status.String())
	}

	if _, err := runRoot(t, "--file", path, "remove", "3"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	snap, _ = pio.ReadFile(path)
	if len(snap.Nodes) != 4 {
		t.Errorf("%d nodes after removing 3", len(snap.Nodes))
	}
}

func TestEditCommandErrors(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "map.json")
	tests := []struct {
		args []string
		code mwerrors.Code
	}{
		{[]string{"toggle", "x"}, mwerrors.ErrCodeInvalidInput},
		{[]string{"toggle", "0"}, mwerrors.ErrCodeInvalidInput},
		{[]string{"toggle", "42"}, mwerrors.ErrCodeNodeNotFound},
		{[]string{"add", "42", "x"}, mwerrors.ErrCodeInvalidParent},
		{[]string{"export", "--format", "xml"}, mwerrors.ErrCodeInvalidInput},
		{[]string{"import", filepath.Join(t.TempDir(), "nope.json")}, mwerrors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := runRoot(t, append([]string{"--file", path}, tt.args...)...)
			if !mwerrors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "map.json")

	stdout, err := runRoot(t, "--file", path, "export", "--format", "yaml")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stdout, "Haunted Node") {
		t.Errorf("yaml export = %q", stdout)
	}

	other := mindmap.New()
	_ = other.AddNode(mindmap.Node{ID: 1, Label: "Other"})
	src := filepath.Join(dir, "other.yaml")
	if err := pio.ExportFile(other, src); err != nil {
		t.Fatal(err)
	}
	if _, err := runRoot(t, "--file", path, "import", src); err != nil {
		t.Fatalf("import: %v", err)
	}
	snap, err := pio.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Nodes) != 1 || snap.Nodes[0].Label != "Other" {
		t.Errorf("snapshot after import = %+v", snap.Nodes)
	}
}

func TestShowJSON(t *testing.T) {
	buf := captureOutput(t)
	if _, err := runRoot(t, "--file", filepath.Join(t.TempDir(), "map.json"), "show", "--json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"label": "Spider Node"`) {
		t.Errorf("show --json = %q", buf.String())
	}
}

func TestRenderDOT(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "map.json")
	outFile := filepath.Join(dir, "map.dot")

	if _, err := runRoot(t, "--file", path, "render", "--format", "dot", "--rankdir", "lr", "-o", outFile); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := readString(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(data, "rankdir=LR") || !strings.Contains(data, "Ghost Node") {
		t.Errorf("dot output = %q", data)
	}
}

func TestParseNodeID(t *testing.T) {
	tests := []struct {
		in      string
		want    mindmap.NodeID
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"two", 0, true},
	}
	for _, tt := range tests {
		got, err := parseNodeID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseNodeID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		snapshot string
		format   render.Format
		want     string
	}{
		{"mindweb.json", render.FormatSVG, "mindweb.svg"},
		{"maps/ideas.yaml", render.FormatPNG, "maps/ideas.png"},
		{"", render.FormatDOT, "mindweb.dot"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.snapshot, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %s) = %q, want %q", tt.snapshot, tt.format, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRenderTree(t *testing.T) {
	g := mindmap.Seed()
	if _, err := g.Toggle(2); err != nil {
		t.Fatal(err)
	}
	v := g.View()

	visible := renderTree(v, treeOptions{})
	for _, want := range []string{"Start", "Haunted Node*", "Spider Node"} {
		if !strings.Contains(visible, want) {
			t.Errorf("tree missing %q:\n%s", want, visible)
		}
	}
	if strings.Contains(visible, "Ghost Node") {
		t.Errorf("hidden node in tree:\n%s", visible)
	}

	all := renderTree(v, treeOptions{ShowHidden: true})
	if !strings.Contains(all, "Ghost Node (hidden)") {
		t.Errorf("tree with hidden nodes:\n%s", all)
	}
}

func TestRenderTreeCycle(t *testing.T) {
	v := mindmap.View{
		Nodes: []mindmap.NodeView{{ID: 1, Label: "A"}, {ID: 2, Label: "B"}},
		Edges: []mindmap.EdgeView{{From: 1, To: 2}, {From: 2, To: 1}},
	}
	got := renderTree(v, treeOptions{})
	if !strings.Contains(got, "A") || !strings.Contains(got, "B") || !strings.Contains(got, iconCycle) {
		t.Errorf("cyclic tree:\n%s", got)
	}
}

func TestReportError(t *testing.T) {
	buf := captureOutput(t)
	ReportError(mwerrors.Wrap(mwerrors.ErrCodeIO, errors.New("disk full"), "write map.json"))
	got := buf.String()
	if !strings.Contains(got, "write map.json") || !strings.Contains(got, "disk full") {
		t.Errorf("ReportError output = %q", got)
	}

	buf.Reset()
	ReportError(errors.New("plain"))
	if strings.Count(buf.String(), "plain") != 1 {
		t.Errorf("plain error printed as %q", buf.String())
	}
}
