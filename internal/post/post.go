package post

import (
	"fmt"
	"strings"
	"time"
)

// Status is the publication state of a post.
type Status string

const (
	Draft     Status = "draft"
	Published Status = "published"
	Scheduled Status = "scheduled"
)

func (s Status) Valid() bool {
	switch s {
	case Draft, Published, Scheduled:
		return true
	}
	return false
}

// ParseStatus maps a user-supplied status name to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (valid: draft, published, scheduled)", s)
	}
	return st, nil
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is a blog post as read from the store. Posts handed to the ranking
// and listing code are treated as immutable snapshots.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Link        string     `json:"link,omitempty"`
	Categories  []Category `json:"categories"`
	Tags        []Tag      `json:"tags"`
	Author      Author     `json:"author"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ViewCount   int        `json:"view_count"`
	IsFeatured  bool       `json:"is_featured"`
}

// EffectiveDate returns PublishedAt when set, otherwise CreatedAt.
func (p Post) EffectiveDate() time.Time {
	if p.PublishedAt != nil && !p.PublishedAt.IsZero() {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

func (p Post) IsPublished() bool {
	return p.Status == Published
}

// HasCategory reports whether the post belongs to a category whose slug or
// id equals key.
func (p Post) HasCategory(key string) bool {
	for _, c := range p.Categories {
		if c.Slug == key || c.ID == key {
			return true
		}
	}
	return false
}

// HasTag reports whether the post carries a tag whose slug or id equals key.
func (p Post) HasTag(key string) bool {
	for _, t := range p.Tags {
		if t.Slug == key || t.ID == key {
			return true
		}
	}
	return false
}

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

func ParseCommentStatus(s string) (CommentStatus, error) {
	switch cs := CommentStatus(strings.ToLower(strings.TrimSpace(s))); cs {
	case CommentPending, CommentApproved, CommentRejected:
		return cs, nil
	}
	return "", fmt.Errorf("unknown comment status %q (valid: pending, approved, rejected)", s)
}

type Comment struct {
	ID          string        `json:"id"`
	PostID      string        `json:"post_id"`
	ParentID    string        `json:"parent_id,omitempty"`
	AuthorName  string        `json:"author_name"`
	AuthorEmail string        `json:"-"`
	Content     string        `json:"content"`
	Status      CommentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
