// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"time"

	"itblog/internal/models"
)

// postInput is the request body for creating or updating a post.
type postInput struct {
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Excerpt       *string          `json:"excerpt"`
	Content       string           `json:"content"`
	FeaturedImage *string          `json:"featured_image"`
	CategoryID    string           `json:"category_id"`
	Status        string           `json:"status"`
	PublishedAt   *string          `json:"published_at"`
	ScheduledAt   *string          `json:"scheduled_at"`
	IsFeatured    bool             `json:"is_featured"`
	AllowComments *bool            `json:"allow_comments"`
	Meta          *models.PostMeta `json:"meta_data"`
	TagIDs        []string         `json:"tag_ids"`
}

func validatePost(in *postInput) map[string]string {
	errs := make(map[string]string)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > 255 {
		errs["title"] = "title must not exceed 255 characters"
	}

	if len(in.Slug) > 255 {
		errs["slug"] = "slug must not exceed 255 characters"
	}

	if in.Excerpt != nil && len(*in.Excerpt) > 500 {
		errs["excerpt"] = "excerpt must not exceed 500 characters"
	}

	if strings.TrimSpace(in.Content) == "" {
		errs["content"] = "content is required"
	}

	if strings.TrimSpace(in.CategoryID) == "" {
		errs["category_id"] = "category is required"
	}

	if !models.PostStatus(in.Status).Valid() {
		errs["status"] = "status must be draft, published or scheduled"
	}

	if in.Meta != nil {
		if len(in.Meta.MetaTitle) > 255 {
			errs["meta_data.meta_title"] = "meta title must not exceed 255 characters"
		}
		if len(in.Meta.MetaDescription) > 500 {
			errs["meta_data.meta_description"] = "meta description must not exceed 500 characters"
		}
	}

	return errs
}

// parseTime parses an optional RFC 3339 timestamp field, recording a
// field error on failure. Publishing timestamps arrive this way:
// published_at for explicit backdating, scheduled_at for scheduling.
func parseTime(raw *string, field string, errs map[string]string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	at, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		errs[field] = field + " must be an RFC 3339 timestamp"
		return nil
	}
	return &at
}

// commentInput is the request body for a public comment submission.
// Guests supply author_name and author_email; signed-in users supply
// neither and are identified by their session.
type commentInput struct {
	Content       string  `json:"content"`
	ParentID      *string `json:"parent_id"`
	AuthorName    *string `json:"author_name"`
	AuthorEmail   *string `json:"author_email"`
	AuthorWebsite *string `json:"author_website"`
}

func validateComment(in *commentInput, signedIn bool) map[string]string {
	errs := make(map[string]string)

	content := strings.TrimSpace(in.Content)
	if content == "" {
		errs["content"] = "content is required"
	} else if len(content) > 5000 {
		errs["content"] = "content must not exceed 5000 characters"
	}

	if !signedIn {
		if in.AuthorName == nil || strings.TrimSpace(*in.AuthorName) == "" {
			errs["author_name"] = "name is required"
		} else if len(*in.AuthorName) > 255 {
			errs["author_name"] = "name must not exceed 255 characters"
		}
		if in.AuthorEmail == nil || strings.TrimSpace(*in.AuthorEmail) == "" {
			errs["author_email"] = "email is required"
		} else if !strings.Contains(*in.AuthorEmail, "@") {
			errs["author_email"] = "email must be a valid address"
		}
	}

	return errs
}

type categoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

func validateCategory(in *categoryInput) map[string]string {
	errs := make(map[string]string)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs["name"] = "name is required"
	} else if len(name) > 255 {
		errs["name"] = "name must not exceed 255 characters"
	}
	return errs
}

type tagInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func validateTag(in *tagInput) map[string]string {
	errs := make(map[string]string)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs["name"] = "name is required"
	} else if len(name) > 255 {
		errs["name"] = "name must not exceed 255 characters"
	}
	return errs
}
