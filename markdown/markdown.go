// Package markdown renders the subset of Markdown used in post bodies to HTML.
//
// Supported blocks: ATX headings, paragraphs, fenced code, bullet and
// numbered lists, blockquotes and horizontal rules. Inline: code spans,
// strong, emphasis, links and images. All text is HTML-escaped; callers that
// serve the output should still pass it through an HTML sanitizer.
package markdown

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reHeading     = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	reOrderedItem = regexp.MustCompile(`^\d+[.)]\s+`)
	reBulletItem  = regexp.MustCompile(`^[-*+]\s+`)
	reRule        = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)

	reCode   = regexp.MustCompile("`([^`]+)`")
	reImage  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	reLink   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reStrong = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	reEm     = regexp.MustCompile(`(\*|_)([^*_]+)(\*|_)`)
)

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockCode
)

var closers = map[block]string{
	blockPara:    "</p>\n",
	blockList:    "</ul>\n",
	blockOrdered: "</ol>\n",
	blockQuote:   "</blockquote>\n",
	blockCode:    "</code></pre>\n",
}

type renderer struct {
	out  strings.Builder
	open block
}

func (r *renderer) close() {
	r.out.WriteString(closers[r.open])
	r.open = blockNone
}

// enter switches to block b, closing whatever was open, and reports whether
// b was newly opened.
func (r *renderer) enter(b block, opening string) bool {
	if r.open == b {
		return false
	}
	r.close()
	r.out.WriteString(opening)
	r.open = b
	return true
}

// ToHTML renders md as an HTML fragment.
func ToHTML(md string) string {
	r := &renderer{}
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if r.open == blockCode {
				r.close()
				continue
			}
			r.close()
			if lang := strings.TrimSpace(trimmed[3:]); lang != "" {
				r.out.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
			} else {
				r.out.WriteString("<pre><code>")
			}
			r.open = blockCode
			continue
		}
		if r.open == blockCode {
			r.out.WriteString(html.EscapeString(line))
			r.out.WriteByte('\n')
			continue
		}

		switch {
		case trimmed == "":
			r.close()
		case reRule.MatchString(trimmed):
			r.close()
			r.out.WriteString("<hr/>\n")
		case reHeading.MatchString(trimmed):
			r.close()
			m := reHeading.FindStringSubmatch(trimmed)
			level := strconv.Itoa(len(m[1]))
			r.out.WriteString("<h" + level + ">" + Inline(m[2]) + "</h" + level + ">\n")
		case reBulletItem.MatchString(trimmed):
			r.enter(blockList, "<ul>\n")
			r.out.WriteString("<li>" + Inline(reBulletItem.ReplaceAllString(trimmed, "")) + "</li>\n")
		case reOrderedItem.MatchString(trimmed):
			r.enter(blockOrdered, "<ol>\n")
			r.out.WriteString("<li>" + Inline(reOrderedItem.ReplaceAllString(trimmed, "")) + "</li>\n")
		case strings.HasPrefix(trimmed, ">"):
			if !r.enter(blockQuote, "<blockquote>") {
				r.out.WriteByte(' ')
			}
			r.out.WriteString(Inline(strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))))
		default:
			if !r.enter(blockPara, "<p>") {
				r.out.WriteByte(' ')
			}
			r.out.WriteString(Inline(trimmed))
		}
	}
	r.close()
	return r.out.String()
}

// Inline escapes s and applies inline formatting.
func Inline(s string) string {
	var spans []string
	hold := func(fragment string) string {
		spans = append(spans, fragment)
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	}

	// Code spans, images and links are parked behind placeholders so the
	// emphasis patterns never see their contents.
	s = reCode.ReplaceAllStringFunc(s, func(m string) string {
		return hold("<code>" + html.EscapeString(reCode.FindStringSubmatch(m)[1]) + "</code>")
	})
	s = reImage.ReplaceAllStringFunc(s, func(m string) string {
		sm := reImage.FindStringSubmatch(m)
		src := SafeURL(sm[2])
		if src == "" {
			return hold(html.EscapeString(sm[1]))
		}
		return hold(`<img src="` + src + `" alt="` + html.EscapeString(sm[1]) + `" loading="lazy"/>`)
	})
	s = reLink.ReplaceAllStringFunc(s, func(m string) string {
		sm := reLink.FindStringSubmatch(m)
		text := emphasis(html.EscapeString(sm[1]))
		href := SafeURL(sm[2])
		if href == "" {
			return hold(text)
		}
		return hold(`<a href="` + href + `">` + text + `</a>`)
	})

	s = emphasis(html.EscapeString(s))
	for i, span := range spans {
		s = strings.Replace(s, "\x00"+strconv.Itoa(i)+"\x00", span, 1)
	}
	return s
}

func emphasis(s string) string {
	s = reStrong.ReplaceAllStringFunc(s, func(m string) string {
		sm := reStrong.FindStringSubmatch(m)
		if sm[1] != sm[3] {
			return m
		}
		return "<strong>" + sm[2] + "</strong>"
	})
	return reEm.ReplaceAllStringFunc(s, func(m string) string {
		sm := reEm.FindStringSubmatch(m)
		if sm[1] != sm[3] {
			return m
		}
		return "<em>" + sm[2] + "</em>"
	})
}

// SafeURL returns raw escaped for an attribute if it is relative, an anchor,
// or uses http, https or mailto. Anything else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return html.EscapeString(val)
	}
	return ""
}
