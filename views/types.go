package views

import "time"

// Site holds the site-wide settings every page needs.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// Post is a blog post prepared for rendering. Body is trusted HTML.
type Post struct {
	Title     string
	Slug      string
	Excerpt   string
	CoverURL  string
	Body      string
	CreatedAt time.Time
}
