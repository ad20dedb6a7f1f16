package views

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const pageStyle = `body{max-width:42rem;margin:0 auto;padding:2rem 1rem;font-family:system-ui,sans-serif;line-height:1.6;color:#1c1917}
img{max-width:100%;height:auto}pre{overflow-x:auto;background:#f5f5f4;padding:1rem}
header a{color:inherit;text-decoration:none;font-weight:600}time{color:#78716c;font-size:.875rem}`

// page accumulates writes and keeps the first error.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(parts ...string) {
	for _, s := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(html.EscapeString(s))
}

func (p *page) head(site Site, meta PageMeta) {
	p.raw("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"/>",
		`<meta name="viewport" content="width=device-width, initial-scale=1"/>`, "<title>")
	p.text(meta.Title)
	p.raw("</title>")
	if meta.Description != "" {
		p.raw(`<meta name="description" content="`)
		p.text(meta.Description)
		p.raw(`"/><meta property="og:description" content="`)
		p.text(meta.Description)
		p.raw(`"/>`)
	}
	p.raw(`<meta property="og:title" content="`)
	p.text(meta.Title)
	p.raw(`"/><meta property="og:site_name" content="`)
	p.text(site.Name)
	p.raw(`"/><meta property="og:type" content="`)
	p.text(meta.OGType)
	p.raw(`"/>`)
	if meta.URL != "" {
		p.raw(`<link rel="canonical" href="`)
		p.text(meta.URL)
		p.raw(`"/><meta property="og:url" content="`)
		p.text(meta.URL)
		p.raw(`"/>`)
	}
	if meta.Image != "" {
		p.raw(`<meta property="og:image" content="`)
		p.text(meta.Image)
		p.raw(`"/>`)
	}
	p.raw(`<link rel="alternate" type="application/rss+xml" title="`)
	p.text(site.Name)
	p.raw(`" href="/feed.xml"/>`)
	p.raw("<style>", pageStyle, "</style></head><body><header><a href=\"/\">")
	p.text(site.Name)
	p.raw("</a></header>")
}

func (p *page) foot() {
	p.raw("</body></html>\n")
}

// PostPage renders a full post.
func PostPage(site Site, post Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.head(site, MetaForPost(site, post))
		p.raw("<main><article><h1>")
		p.text(post.Title)
		p.raw(`</h1><time datetime="`, post.CreatedAt.UTC().Format("2006-01-02"), `">`,
			post.CreatedAt.UTC().Format("January 2, 2006"), "</time>")
		if post.CoverURL != "" {
			p.raw(`<img src="`)
			p.text(post.CoverURL)
			p.raw(`" alt="`)
			p.text(post.Title)
			p.raw(`" fetchpriority="high"/>`)
		}
		if post.Excerpt != "" && strings.TrimSpace(post.Body) == "" {
			p.raw("<p>")
			p.text(post.Excerpt)
			p.raw("</p>")
		}
		p.raw(`<div class="post-body">`, post.Body, "</div></article></main>")
		p.foot()
		return p.err
	})
}

// NotFoundPage renders the 404 page.
func NotFoundPage(site Site) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.head(site, PageMeta{Title: "Not found | " + site.Name, OGType: "website"})
		p.raw("<main><h1>Page not found</h1><p>The post you are looking for does not exist. ",
			`<a href="/">Back home</a></p></main>`)
		p.foot()
		return p.err
	})
}
