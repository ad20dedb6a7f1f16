package portfolio

import "time"

// BlogPost is the full post record returned by create and by-slug lookups.
type BlogPost struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       *string   `json:"excerpt"`
	Content       *string   `json:"content"`
	CoverImageURL *string   `json:"coverImageUrl"`
	CoverImageID  *int64    `json:"coverImageId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PostSummary is the listing shape of a post. Content is left out.
type PostSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       *string   `json:"excerpt"`
	CoverImageURL *string   `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreatePostInput is the body accepted by POST /posts.
type CreatePostInput struct {
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	Excerpt       *string `json:"excerpt"`
	Content       *string `json:"content"`
	CoverImageURL *string `json:"coverImageUrl"`
}

// Image is an uploaded binary blob. Data and MimeType never change once stored.
type Image struct {
	ID        int64     `json:"id"`
	Filename  *string   `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// URL is the retrieval path of the image.
func (img Image) URL() string {
	return imagePath(img.ID)
}
