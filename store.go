package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxCreateAttempts bounds how often CreatePost re-runs the slug probe after
// losing an insert race on the unique index.
const maxCreateAttempts = 3

var imagePathRe = regexp.MustCompile(`^/images/(\d+)/?$`)

// Store wraps a SQL database (SQLite or Postgres) and provides the blog post
// and image operations.
type Store struct {
	db      *sql.DB
	dialect dialect

	// createMu serializes slug probing and insertion within this process.
	createMu sync.Mutex
}

// NewStore opens (or creates) the database behind dsn and runs the schema
// script for its dialect. dsn is either a SQLite file path or a postgres:// URL.
func NewStore(dsn string) (*Store, error) {
	db, d, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: d}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	script, err := schemaFS.ReadFile("schema/" + string(s.dialect) + ".sql")
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(script), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

// CreatePost inserts a new post under a freshly allocated slug and returns
// the stored record.
func (s *Store) CreatePost(ctx context.Context, in CreatePostInput) (BlogPost, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return BlogPost{}, validationError("Title is required")
	}
	coverID, err := s.coverImageID(ctx, in.CoverImageURL)
	if err != nil {
		return BlogPost{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	post := BlogPost{
		Title:         title,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		CoverImageURL: in.CoverImageURL,
		CoverImageID:  coverID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	base := slugBase(title, in.Slug)
	alloc := SlugAllocator{Exists: s.SlugExists}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		slug, err := alloc.Allocate(ctx, base)
		if err != nil {
			return BlogPost{}, err
		}
		post.Slug = slug
		err = s.db.QueryRowContext(ctx, s.q(`INSERT INTO blogs (title, slug, excerpt, content, cover_image_url, cover_image_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			post.Title, post.Slug, post.Excerpt, post.Content, post.CoverImageURL, post.CoverImageID, post.CreatedAt, post.UpdatedAt).
			Scan(&post.ID)
		if err == nil {
			return post, nil
		}
		if !isUniqueViolation(err) {
			return BlogPost{}, storageError("insert post", err)
		}
		// Another writer took the slug between probe and insert.
		lastErr = err
	}
	return BlogPost{}, conflictError("Slug is already taken, please retry", lastErr)
}

// SlugExists reports whether a post already uses slug.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM blogs WHERE slug = ? LIMIT 1`), slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("probe slug", err)
	}
	return true, nil
}

// ListPosts returns post summaries, newest first. A limit <= 0 returns all posts.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]PostSummary, error) {
	query := `SELECT id, title, slug, excerpt, cover_image_url, created_at FROM blogs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, storageError("list posts", err)
	}
	defer rows.Close()

	posts := []PostSummary{}
	for rows.Next() {
		var p PostSummary
		var excerpt, cover sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &excerpt, &cover, &p.CreatedAt); err != nil {
			return nil, storageError("scan post", err)
		}
		p.Excerpt = nullString(excerpt)
		p.CoverImageURL = nullString(cover)
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list posts", err)
	}
	return posts, nil
}

// GetPostBySlug returns the full post stored under slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	var p BlogPost
	var excerpt, content, cover sql.NullString
	var coverID sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, title, slug, excerpt, content, cover_image_url, cover_image_id, created_at, updated_at
FROM blogs WHERE slug = ?`), slug).
		Scan(&p.ID, &p.Title, &p.Slug, &excerpt, &content, &cover, &coverID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return BlogPost{}, notFoundError("Post not found")
	}
	if err != nil {
		return BlogPost{}, storageError("get post", err)
	}
	p.Excerpt = nullString(excerpt)
	p.Content = nullString(content)
	p.CoverImageURL = nullString(cover)
	p.CoverImageID = nullInt64(coverID)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// DeletePost removes a post by id. Deleting a missing id is not an error.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM blogs WHERE id = ?`), id); err != nil {
		return storageError("delete post", err)
	}
	return nil
}

// coverImageID resolves a cover URL of the form /images/{id} (relative or
// absolute) to the id of an existing image. Any other URL is kept as a plain
// string with no reference.
func (s *Store) coverImageID(ctx context.Context, coverURL *string) (*int64, error) {
	if coverURL == nil {
		return nil, nil
	}
	u, err := url.Parse(strings.TrimSpace(*coverURL))
	if err != nil {
		return nil, nil
	}
	m := imagePathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}
	ok, err := s.ImageExists(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}

// SaveImage stores an image blob and returns it with its generated id.
func (s *Store) SaveImage(ctx context.Context, img Image) (Image, error) {
	if len(img.Data) == 0 {
		return Image{}, validationError("No file provided")
	}
	if strings.TrimSpace(img.MimeType) == "" {
		return Image{}, validationError("Mime type is required")
	}
	img.Size = int64(len(img.Data))
	img.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO images (filename, mime_type, data, size, width, height, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		img.Filename, img.MimeType, img.Data, img.Size, img.Width, img.Height, img.CreatedAt).
		Scan(&img.ID)
	if err != nil {
		return Image{}, storageError("insert image", err)
	}
	return img, nil
}

// GetImage returns an image including its bytes.
func (s *Store) GetImage(ctx context.Context, id int64) (Image, error) {
	var img Image
	var filename sql.NullString
	var width, height sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, filename, mime_type, data, size, width, height, created_at FROM images WHERE id = ?`), id).
		Scan(&img.ID, &filename, &img.MimeType, &img.Data, &img.Size, &width, &height, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, notFoundError("Image not found")
	}
	if err != nil {
		return Image{}, storageError("get image", err)
	}
	img.Filename = nullString(filename)
	img.Width = nullInt(width)
	img.Height = nullInt(height)
	img.CreatedAt = img.CreatedAt.UTC()
	return img, nil
}

// ImageExists reports whether an image with id is stored.
func (s *Store) ImageExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM images WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("probe image", err)
	}
	return true, nil
}

// ListImages returns image metadata (no bytes), newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filename, mime_type, size, width, height, created_at FROM images ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageError("list images", err)
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		var img Image
		var filename sql.NullString
		var width, height sql.NullInt64
		if err := rows.Scan(&img.ID, &filename, &img.MimeType, &img.Size, &width, &height, &img.CreatedAt); err != nil {
			return nil, storageError("scan image", err)
		}
		img.Filename = nullString(filename)
		img.Width = nullInt(width)
		img.Height = nullInt(height)
		img.CreatedAt = img.CreatedAt.UTC()
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list images", err)
	}
	return images, nil
}

// DeleteImage removes an image by id. Posts that referenced it keep their
// cover URL; only cover_image_id is cleared by the foreign key.
func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM images WHERE id = ?`), id); err != nil {
		return storageError("delete image", err)
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
