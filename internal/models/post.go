// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusScheduled PostStatus = "scheduled"
)

// Valid reports whether s is one of the known post statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusScheduled:
		return true
	}
	return false
}

// PostMeta holds the optional SEO metadata stored in the posts.meta_data
// JSONB column. All fields are optional strings.
type PostMeta struct {
	MetaTitle          string `json:"meta_title,omitempty"`
	MetaDescription    string `json:"meta_description,omitempty"`
	MetaKeywords       string `json:"meta_keywords,omitempty"`
	OGTitle            string `json:"og_title,omitempty"`
	OGDescription      string `json:"og_description,omitempty"`
	TwitterTitle       string `json:"twitter_title,omitempty"`
	TwitterDescription string `json:"twitter_description,omitempty"`
}

// Post represents a blog article. Slug and ReadingTime are derived fields
// maintained by the publish package on every create and update.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       *string    `json:"excerpt,omitempty"`
	Content       string     `json:"content"`
	FeaturedImage *string    `json:"featured_image,omitempty"`
	CategoryID    uuid.UUID  `json:"category_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Status        PostStatus `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	IsFeatured    bool       `json:"is_featured"`
	AllowComments bool       `json:"allow_comments"`
	ViewsCount    int        `json:"views_count"`
	CommentsCount int        `json:"comments_count"`
	ReadingTime   int        `json:"reading_time"`
	Meta          *PostMeta  `json:"meta_data,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Virtual fields populated by store eager loads.
	Category *Category `json:"category,omitempty"`
	Author   *User     `json:"author,omitempty"`
	Tags     []Tag     `json:"tags,omitempty"`
}

// IsPublished returns true if the post is in published status. It does NOT
// imply public visibility — see publish.Visible for the timestamp check.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
