package render

import (
	"bytes"
	"fmt"
	"strings"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
)

// Rank directions accepted by [Options.RankDir].
const (
	RankTB = "TB"
	RankLR = "LR"
	RankBT = "BT"
	RankRL = "RL"
)

const (
	defaultFill = "#97C2FC"
	defaultFont = "#343434"
)

// Options configures DOT generation.
type Options struct {
	// RankDir is the layout direction. Empty means top-down.
	RankDir string
	// Selected, if non-zero, is drawn with a thick outline.
	Selected mindmap.NodeID
	// ShowHidden includes hidden nodes and edges, drawn dashed and grey.
	ShowHidden bool
}

// Validate rejects unknown rank directions.
func (o Options) Validate() error {
	switch o.RankDir {
	case "", RankTB, RankLR, RankBT, RankRL:
		return nil
	}
	return mwerrors.New(mwerrors.ErrCodeInvalidInput, "unknown rank direction %q", o.RankDir)
}

func (o Options) rankDir() string {
	if o.RankDir == "" {
		return RankTB
	}
	return o.RankDir
}

// ToDOT converts a view to Graphviz DOT. Nodes appear in ID order and edges in
// view order.
func ToDOT(v mindmap.View, opts Options) string {
	if !opts.ShowHidden {
		v = v.Visible()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph mindmap {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.rankDir())
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range v.Edges {
		if e.Hidden {
			fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=grey];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n mindmap.NodeView, opts Options) []string {
	attrs := []string{"label=" + dotQuote(n.Label)}
	if n.Hidden {
		return append(attrs, `style="rounded,dashed"`, "color=grey", "fontcolor=grey")
	}
	attrs = append(attrs,
		"fillcolor=" + dotQuote(FillColor(n.Style)),
		"fontcolor=" + dotQuote(FontColor(n.Style)))
	if n.ID == opts.Selected {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

// dotEscaper escapes a DOT double-quoted string. Newlines become the \n
// line break escape; every other rune passes through as UTF-8.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", "")

func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// FillColor returns the fill color of a node style. It reads "color" as
// either a plain color or an object with a "background" entry.
func FillColor(s mindmap.Style) string {
	switch c := s["color"].(type) {
	case string:
		if c != "" {
			return c
		}
	case map[string]any:
		if bg, ok := c["background"].(string); ok && bg != "" {
			return bg
		}
	}
	return defaultFill
}

// FontColor returns the text color of a node style. It reads "font" as an
// object with a "color" entry, or as a "<size> <face> <color>" shorthand.
func FontColor(s mindmap.Style) string {
	switch f := s["font"].(type) {
	case map[string]any:
		if c, ok := f["color"].(string); ok && c != "" {
			return c
		}
	case string:
		if fields := strings.Fields(f); len(fields) > 0 {
			return fields[len(fields)-1]
		}
	}
	return defaultFont
}
