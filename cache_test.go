package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPostCacheListAndInvalidate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Hour)

	if _, err := s.CreatePost(ctx, CreatePostInput{Title: "First"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	posts, err := c.ListPosts(ctx, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}

	// Written behind the cache's back: still the cached list.
	if _, err := s.CreatePost(ctx, CreatePostInput{Title: "Second"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	posts, _ = c.ListPosts(ctx, 0)
	if len(posts) != 1 {
		t.Errorf("expected cached list of 1, got %d", len(posts))
	}

	c.Invalidate()
	posts, _ = c.ListPosts(ctx, 0)
	if len(posts) != 2 {
		t.Errorf("expected 2 posts after Invalidate, got %d", len(posts))
	}
	limited, _ := c.ListPosts(ctx, 1)
	if len(limited) != 1 || limited[0].Slug != "second" {
		t.Errorf("limit 1 = %+v, want [second]", limited)
	}
}

func TestPostCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Millisecond)

	if _, err := c.ListPosts(ctx, 0); err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if _, err := s.CreatePost(ctx, CreatePostInput{Title: "Later"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	posts, err := c.ListPosts(ctx, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("expected expired cache to reload, got %d posts", len(posts))
	}
}

func TestPostCacheGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Hour)

	if _, err := c.GetPost(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	// Misses are not cached, so a later create is visible.
	p, err := s.CreatePost(ctx, CreatePostInput{Title: "Missing"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	got, err := c.GetPost(ctx, "missing")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %d, want %d", got.ID, p.ID)
	}

	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := c.GetPost(ctx, "missing"); err != nil {
		t.Errorf("expected cached hit before Invalidate, got %v", err)
	}
	c.Invalidate()
	if _, err := c.GetPost(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want not found after Invalidate", err)
	}
}

func TestTruncate(t *testing.T) {
	posts := make([]PostSummary, 3)
	tests := []struct {
		limit, expected int
	}{
		{0, 3}, {-1, 3}, {1, 1}, {3, 3}, {10, 3},
	}
	for _, tt := range tests {
		if got := len(truncate(posts, tt.limit)); got != tt.expected {
			t.Errorf("truncate(limit=%d) len = %d, want %d", tt.limit, got, tt.expected)
		}
	}
}
