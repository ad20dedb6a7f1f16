package portfolio

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s\p{Zs}-]+`)
	whitespace   = regexp.MustCompile(`[\s\p{Zs}]+`)
	multiDash    = regexp.MustCompile(`-+`)
)

const (
	// fallbackSlug is used when neither the requested slug nor the title
	// leaves any usable characters.
	fallbackSlug  = "post"
	maxSlugProbes = 1000
)

// NormalizeSlug converts s to a URL-safe slug.
// Example: "Hello,  World!" -> "hello-world"
func NormalizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// slugBase picks the candidate for a new post: an explicit slug wins over
// the title.
func slugBase(title, slug string) string {
	base := ""
	if strings.TrimSpace(slug) != "" {
		base = NormalizeSlug(slug)
	} else {
		base = NormalizeSlug(title)
	}
	if base == "" {
		base = fallbackSlug
	}
	return base
}

// SlugAllocator finds the first free slug among base, base-1, base-2, ...
// It only picks a likely-free name; the unique index on blogs.slug is what
// actually enforces uniqueness.
type SlugAllocator struct {
	Exists    func(ctx context.Context, slug string) (bool, error)
	MaxProbes int
}

// Allocate returns the first slug derived from base that Exists reports as
// unused.
func (a SlugAllocator) Allocate(ctx context.Context, base string) (string, error) {
	max := a.MaxProbes
	if max <= 0 {
		max = maxSlugProbes
	}
	candidate := base
	for i := 1; i <= max; i++ {
		taken, err := a.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", conflictError("Could not allocate a unique slug", nil)
}
