package portfolio

import (
	"strings"
	"testing"
)

func TestMarkupOnly(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Hello World", false},
		{"", false},
		{"   ", false},
		{"Using Vec<T> in Rust", false},
		{"a<b and c>d", false},
		{"<b>Bold</b> title", false},
		{"<i></i>", true},
		{" <br/> <span> </span> ", true},
	}
	for _, tt := range tests {
		if got := markupOnly(tt.input); got != tt.expected {
			t.Errorf("markupOnly(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := sanitizeHTML(`<p onclick="x()">hi</p><script>bad()</script><a href="javascript:x">l</a>`)
	for _, banned := range []string{"onclick", "<script", "javascript:"} {
		if strings.Contains(got, banned) {
			t.Errorf("sanitizeHTML kept %q: %s", banned, got)
		}
	}
	if !strings.Contains(got, "<p>hi</p>") {
		t.Errorf("sanitizeHTML dropped safe markup: %s", got)
	}
}
