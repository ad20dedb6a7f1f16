package portfolio

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// markupOnly reports whether s is non-blank yet has no text left once every
// tag is stripped, e.g. "<i></i>".
func markupOnly(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s))) == ""
}

// sanitizeHTML filters rendered markdown down to user-generated-content safe markup.
func sanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}
