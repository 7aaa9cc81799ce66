package mindmap

import "testing"

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Start", "Start"},
		{"bold", "<b>Bold</b> move", "Bold move"},
		{"entity", "Tom &amp; Jerry", "Tom & Jerry"},
		{"br", "line<br>two", "line\ntwo"},
		{"self-closing br", "line<br/>two", "line\ntwo"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\ntwo"},
		{"divs", "<div>a</div><div>b</div>", "a\nb"},
		{"script dropped", "<script>alert(1)</script>Hi", "Hi"},
		{"whitespace runs", "  too   many \t spaces  ", "too many spaces"},
		{"blank lines", "a\r\n\r\n\r\nb", "a\nb"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.input); got != tt.want {
				t.Errorf("SanitizeLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
