package portfolio

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory TTL cache in front of the post queries. Every
// write through the gateway calls Invalidate, so a create or delete is visible
// to the next read in this process.
type PostCache struct {
	mu      sync.RWMutex
	list    []PostSummary
	bySlug  map[string]BlogPost
	gen     uint64
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl, bySlug: make(map[string]BlogPost)}
}

func (c *PostCache) fresh() bool {
	return time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.list = nil
	c.bySlug = make(map[string]BlogPost)
	c.fetched = time.Time{}
	c.gen++
	c.mu.Unlock()
}

// ListPosts returns the newest limit summaries (all when limit <= 0).
func (c *PostCache) ListPosts(ctx context.Context, limit int) ([]PostSummary, error) {
	c.mu.RLock()
	if c.list != nil && c.fresh() {
		posts := c.list
		c.mu.RUnlock()
		return truncate(posts, limit), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list == nil || !c.fresh() {
		posts, err := c.store.ListPosts(ctx, 0)
		if err != nil {
			return nil, err
		}
		if !c.fresh() {
			c.bySlug = make(map[string]BlogPost)
		}
		c.list = posts
		c.fetched = time.Now()
	}
	return truncate(c.list, limit), nil
}

// GetPost returns a full post by slug, loading it from the store on a miss.
// Misses are not cached.
func (c *PostCache) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	c.mu.RLock()
	if p, ok := c.bySlug[slug]; ok && c.fresh() {
		c.mu.RUnlock()
		return p, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	p, err := c.store.GetPostBySlug(ctx, slug)
	if err != nil {
		return BlogPost{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// A write landed while we were reading; don't cache what may be stale.
	if gen != c.gen {
		return p, nil
	}
	if !c.fresh() {
		c.list = nil
		c.bySlug = make(map[string]BlogPost)
		c.fetched = time.Now()
	}
	c.bySlug[slug] = p
	return p, nil
}

func truncate(posts []PostSummary, limit int) []PostSummary {
	if limit > 0 && limit < len(posts) {
		return posts[:limit]
	}
	return posts
}
