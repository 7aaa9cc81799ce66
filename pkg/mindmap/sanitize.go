package mindmap

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()

	// Block-level breaks become newlines before the tags are stripped.
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>|</div\s*>|</li\s*>`)
	blankRun      = regexp.MustCompile(`[ \t]+`)
)

// SanitizeLabel converts rich editor input to plain label text.
//
// All markup is removed, entities are unescaped, runs of spaces and tabs are
// collapsed, and surrounding whitespace is trimmed from every line. Line
// breaks written as <br>, </p>, </div> or </li> are kept as newlines.
func SanitizeLabel(s string) string {
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
