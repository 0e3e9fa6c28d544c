package types

import (
	"errors"
	"time"
)

var ErrBlogNotFound = errors.New("blog not found")

type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
)

// Toggle returns the opposite publication status.
func (s BlogStatus) Toggle() BlogStatus {
	if s == BlogStatusPublished {
		return BlogStatusDraft
	}
	return BlogStatusPublished
}

type Blog struct {
	ID           string     `db:"id" json:"_id"`
	Title        string     `db:"title" json:"title"`
	Content      string     `db:"content" json:"content"`
	Category     *string    `db:"category" json:"category,omitempty"`
	ThumbnailURL *string    `db:"thumbnail_url" json:"thumbnail,omitempty"`
	AuthorName   string     `db:"author_name" json:"authorName"`
	AuthorEmail  string     `db:"author_email" json:"authorEmail"`
	AuthorAvatar *string    `db:"author_avatar" json:"authorAvatar,omitempty"`
	Status       BlogStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

type BlogForm struct {
	Title    string  `form:"title" json:"title"`
	Content  string  `form:"content" json:"content"`
	Category *string `form:"category" json:"category"`
}

type BlogFilter struct {
	Status string `form:"status"`
	Page   uint64 `form:"page"`
	Limit  uint64 `form:"limit"`
}
