package views

import (
	"net/url"
	"path"
	"strings"
)

// absURL joins path segments onto a base URL. A single root-relative or
// absolute ref, such as a cover image URL, is resolved against the base
// instead.
func absURL(base string, segments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(segments) == 1 && (strings.HasPrefix(segments[0], "/") || strings.Contains(segments[0], "://")) {
		ref, err := url.Parse(segments[0])
		if err != nil {
			return base
		}
		return u.ResolveReference(ref).String()
	}
	u.Path = path.Join("/", u.Path, path.Join(segments...))
	return u.String()
}

// MetaForPost builds the head metadata for a post page.
func MetaForPost(site Site, post Post) PageMeta {
	desc := post.Excerpt
	if desc == "" {
		desc = site.Description
	}
	meta := PageMeta{
		Title:       post.Title + " | " + site.Name,
		Description: desc,
		URL:         absURL(site.URL, "blog", post.Slug),
		OGType:      "article",
	}
	if post.CoverURL != "" {
		meta.Image = absURL(site.URL, post.CoverURL)
	}
	return meta
}
