package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/render"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHidden   = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

const (
	iconSuccess  = "✓"
	iconError    = "✗"
	iconWarning  = "!"
	iconInfo     = "›"
	iconArrow    = "→"
	iconCached   = "cached"
	iconFresh    = "fresh"
	iconSelected = "▸ "
	iconCycle    = " ↺"
)

// Status lines go to out and errors to errOut. Tests swap them for buffers.
var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(errOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// ReportError prints err for the user. Errors carrying a code show their
// message first and the full chain below it.
func ReportError(err error) {
	msg := mwerrors.UserMessage(err)
	printError("%s", msg)
	if full := err.Error(); mwerrors.GetCode(err) != "" && full != msg {
		fmt.Fprintln(errOut, "  "+StyleDim.Render(full))
	}
}

// printStats prints map statistics on a single line.
func printStats(nodes, edges int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodes)),
		StyleDim.Render(fmt.Sprintf("%d edges", edges)),
		statusStyle.Render(status),
	}
	fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// treeOptions controls renderTree.
type treeOptions struct {
	ShowHidden bool
	Selected   mindmap.NodeID
}

// renderTree draws the map as indented trees, one per root. A node with
// several parents appears under each of them; a node that leads back to one
// of its own ancestors is printed once more with a cycle mark and not
// expanded again.
func renderTree(v mindmap.View, opts treeOptions) string {
	nodes := make(map[mindmap.NodeID]mindmap.NodeView, len(v.Nodes))
	for _, n := range v.Nodes {
		nodes[n.ID] = n
	}
	children := make(map[mindmap.NodeID][]mindmap.NodeID)
	hasParent := make(map[mindmap.NodeID]bool)
	for _, e := range v.Edges {
		hasParent[e.To] = true
		if e.Hidden && !opts.ShowHidden {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
	}

	var roots []mindmap.NodeID
	for _, n := range v.Nodes {
		if !hasParent[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 && len(v.Nodes) > 0 {
		roots = append(roots, v.Nodes[0].ID)
	}

	onPath := make(map[mindmap.NodeID]bool)
	var build func(id mindmap.NodeID) any
	build = func(id mindmap.NodeID) any {
		label := nodeLabel(nodes[id], opts)
		kids := children[id]
		if len(kids) == 0 {
			return label
		}
		onPath[id] = true
		defer delete(onPath, id)

		t := tree.Root(label).Enumerator(tree.RoundedEnumerator)
		for _, kid := range kids {
			if onPath[kid] {
				t.Child(nodeLabel(nodes[kid], opts) + StyleDim.Render(iconCycle))
				continue
			}
			t.Child(build(kid))
		}
		return t
	}

	var b strings.Builder
	for i, id := range roots {
		if nodes[id].Hidden && !opts.ShowHidden {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprint(&b, build(id))
		b.WriteString("\n")
	}
	return b.String()
}

func nodeLabel(n mindmap.NodeView, opts treeOptions) string {
	id := StyleDim.Render(fmt.Sprintf("%d", n.ID))
	if n.Hidden {
		return id + " " + styleHidden.Render(n.Label+" (hidden)")
	}
	chip := lipgloss.NewStyle().
		Background(lipgloss.Color(render.FillColor(n.Style))).
		Foreground(lipgloss.Color(render.FontColor(n.Style))).
		Padding(0, 1).
		Render(n.Label)
	if n.ID == opts.Selected {
		return styleSelected.Render(iconSelected) + id + " " + chip
	}
	return id + " " + chip
}
