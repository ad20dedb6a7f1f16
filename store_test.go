package portfolio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.dialect != dialectSQLite {
		t.Errorf("dialect = %q, want %q", s.dialect, dialectSQLite)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestNewStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blog.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := s.CreatePost(context.Background(), CreatePostInput{Title: "Persisted"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetPostBySlug(context.Background(), "persisted"); err != nil {
		t.Fatalf("post lost after reopen: %v", err)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePost(ctx, CreatePostInput{
		Title:         "  Hello World  ",
		Excerpt:       strPtr("Short summary"),
		Content:       strPtr("# Heading\n\nBody"),
		CoverImageURL: strPtr("https://cdn.example.com/cover.png"),
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if created.ID <= 0 {
		t.Errorf("expected positive id, got %d", created.ID)
	}
	if created.Title != "Hello World" {
		t.Errorf("Title = %q, want trimmed %q", created.Title, "Hello World")
	}
	if created.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", created.Slug, "hello-world")
	}
	if created.CoverImageID != nil {
		t.Errorf("external cover should not reference an image, got %d", *created.CoverImageID)
	}

	got, err := s.GetPostBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetPostBySlug failed: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title || got.Slug != created.Slug {
		t.Errorf("got %+v, want %+v", got, created)
	}
	if got.Excerpt == nil || *got.Excerpt != "Short summary" {
		t.Errorf("Excerpt = %v, want %q", got.Excerpt, "Short summary")
	}
	if got.Content == nil || *got.Content != "# Heading\n\nBody" {
		t.Errorf("Content = %v", got.Content)
	}
	if got.CoverImageURL == nil || *got.CoverImageURL != "https://cdn.example.com/cover.png" {
		t.Errorf("CoverImageURL = %v", got.CoverImageURL)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
	if !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestCreatePostOptionalFieldsStayNil(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, CreatePostInput{Title: "Bare"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	got, err := s.GetPostBySlug(ctx, "bare")
	if err != nil {
		t.Fatalf("GetPostBySlug failed: %v", err)
	}
	if got.Excerpt != nil || got.Content != nil || got.CoverImageURL != nil || got.CoverImageID != nil {
		t.Errorf("expected nil optional fields, got %+v", got)
	}
}

func TestCreatePostEmptyTitle(t *testing.T) {
	s := setupTestStore(t)
	for _, title := range []string{"", "   "} {
		_, err := s.CreatePost(context.Background(), CreatePostInput{Title: title})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("CreatePost(%q) err = %v, want validation error", title, err)
		}
		if code, msg := errorStatus(err); code != 400 || msg != "Title is required" {
			t.Errorf("errorStatus = %d %q", code, msg)
		}
	}
}

func TestCreatePostSlugCollisions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	want := []string{"hello-world", "hello-world-1", "hello-world-2"}
	for i, w := range want {
		p, err := s.CreatePost(ctx, CreatePostInput{Title: "Hello World"})
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		if p.Slug != w {
			t.Errorf("create %d: slug = %q, want %q", i, p.Slug, w)
		}
	}
}

func TestCreatePostExplicitSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePost(ctx, CreatePostInput{Title: "Anything", Slug: "My Custom Slug!"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.Slug != "my-custom-slug" {
		t.Errorf("Slug = %q, want %q", p.Slug, "my-custom-slug")
	}

	p, err = s.CreatePost(ctx, CreatePostInput{Title: "Other", Slug: "my-custom-slug"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.Slug != "my-custom-slug-1" {
		t.Errorf("Slug = %q, want %q", p.Slug, "my-custom-slug-1")
	}
}

func TestCreatePostFallbackSlug(t *testing.T) {
	s := setupTestStore(t)
	p, err := s.CreatePost(context.Background(), CreatePostInput{Title: "!!!"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.Slug != fallbackSlug {
		t.Errorf("Slug = %q, want %q", p.Slug, fallbackSlug)
	}
}

func TestCreatePostConcurrentSameTitle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	slugs := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := s.CreatePost(ctx, CreatePostInput{Title: "Race"})
			slugs[i], errs[i] = p.Slug, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("create %d failed: %v", i, errs[i])
		}
		if seen[slugs[i]] {
			t.Errorf("duplicate slug %q", slugs[i])
		}
		seen[slugs[i]] = true
	}
}

func TestCreatePostTwoStoresSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	stores := make([]*Store, 2)
	for i := range stores {
		s, err := NewStore(path)
		if err != nil {
			t.Fatalf("NewStore %d failed: %v", i, err)
		}
		defer s.Close()
		stores[i] = s
	}

	// Separate stores do not share createMu, so losers of the insert race go
	// through the unique index and retry.
	const n = 20
	ctx := context.Background()
	var wg sync.WaitGroup
	slugs := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := stores[i%2].CreatePost(ctx, CreatePostInput{Title: "Shared Title"})
			slugs[i], errs[i] = p.Slug, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("create %d failed: %v", i, errs[i])
		}
		if seen[slugs[i]] {
			t.Errorf("duplicate slug %q", slugs[i])
		}
		seen[slugs[i]] = true
	}
	posts, err := stores[0].ListPosts(ctx, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != n {
		t.Errorf("expected %d posts, got %d", n, len(posts))
	}
}

func TestListPosts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	empty, err := s.ListPosts(ctx, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	for i := 1; i <= 5; i++ {
		if _, err := s.CreatePost(ctx, CreatePostInput{Title: fmt.Sprintf("Post %d", i)}); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	all, err := s.ListPosts(ctx, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 posts, got %d", len(all))
	}
	if all[0].Slug != "post-5" || all[4].Slug != "post-1" {
		t.Errorf("expected newest first, got %q ... %q", all[0].Slug, all[4].Slug)
	}

	limited, err := s.ListPosts(ctx, 2)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(limited))
	}
	if limited[0].Slug != "post-5" || limited[1].Slug != "post-4" {
		t.Errorf("got %q, %q; want post-5, post-4", limited[0].Slug, limited[1].Slug)
	}
}

func TestGetPostBySlugNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPostBySlug(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if code, msg := errorStatus(err); code != 404 || msg != "Post not found" {
		t.Errorf("errorStatus = %d %q", code, msg)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePost(ctx, CreatePostInput{Title: "To Delete"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPostBySlug(ctx, p.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted post to be gone, err = %v", err)
	}
	// Deleting again, or an id that never existed, is not an error.
	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Errorf("second DeletePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, 9999); err != nil {
		t.Errorf("DeletePost(9999) failed: %v", err)
	}

	// The freed slug can be reused.
	again, err := s.CreatePost(ctx, CreatePostInput{Title: "To Delete"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if again.Slug != "to-delete" {
		t.Errorf("Slug = %q, want %q", again.Slug, "to-delete")
	}
}

func TestSaveAndGetImage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10}
	saved, err := s.SaveImage(ctx, Image{Filename: strPtr("a.png"), MimeType: "image/png", Data: data})
	if err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	if saved.ID <= 0 {
		t.Errorf("expected positive id, got %d", saved.ID)
	}
	if saved.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", saved.Size, len(data))
	}
	if saved.URL() != fmt.Sprintf("/images/%d", saved.ID) {
		t.Errorf("URL() = %q", saved.URL())
	}

	got, err := s.GetImage(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if !bytes.Equal(got.Data, data) {
		t.Errorf("Data = %v, want %v", got.Data, data)
	}
	if got.MimeType != "image/png" {
		t.Errorf("MimeType = %q", got.MimeType)
	}
	if got.Filename == nil || *got.Filename != "a.png" {
		t.Errorf("Filename = %v", got.Filename)
	}
}

func TestSaveImageValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveImage(ctx, Image{MimeType: "image/png"}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty data: err = %v, want validation", err)
	}
	if _, err := s.SaveImage(ctx, Image{Data: []byte{1}}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty mime: err = %v, want validation", err)
	}
}

func TestGetImageNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetImage(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestListImagesOmitsData(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.SaveImage(ctx, Image{MimeType: "image/gif", Data: []byte{byte(i + 1)}}); err != nil {
			t.Fatalf("SaveImage failed: %v", err)
		}
	}
	images, err := s.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	for _, img := range images {
		if img.Data != nil {
			t.Errorf("image %d: expected no data in listing", img.ID)
		}
		if img.Size != 1 {
			t.Errorf("image %d: Size = %d, want 1", img.ID, img.Size)
		}
	}
}

func TestCoverImageReference(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	img, err := s.SaveImage(ctx, Image{MimeType: "image/png", Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	cover := img.URL()
	p, err := s.CreatePost(ctx, CreatePostInput{Title: "With Cover", CoverImageURL: &cover})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.CoverImageID == nil || *p.CoverImageID != img.ID {
		t.Fatalf("CoverImageID = %v, want %d", p.CoverImageID, img.ID)
	}

	if err := s.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	got, err := s.GetPostBySlug(ctx, p.Slug)
	if err != nil {
		t.Fatalf("GetPostBySlug failed: %v", err)
	}
	if got.CoverImageID != nil {
		t.Errorf("expected cover_image_id cleared, got %d", *got.CoverImageID)
	}
	if got.CoverImageURL == nil || *got.CoverImageURL != cover {
		t.Errorf("CoverImageURL = %v, want %q kept", got.CoverImageURL, cover)
	}
}

func TestCoverImageUnknownID(t *testing.T) {
	s := setupTestStore(t)
	cover := "/images/777"
	p, err := s.CreatePost(context.Background(), CreatePostInput{Title: "Dangling", CoverImageURL: &cover})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.CoverImageID != nil {
		t.Errorf("expected no reference for unknown image, got %d", *p.CoverImageID)
	}
	if p.CoverImageURL == nil || *p.CoverImageURL != cover {
		t.Errorf("CoverImageURL = %v", p.CoverImageURL)
	}
}
