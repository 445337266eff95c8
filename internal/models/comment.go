// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CommentStatus represents the moderation state of a comment. Only
// approved comments are visible on the public site.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusSpam     CommentStatus = "spam"
	CommentStatusRejected CommentStatus = "rejected"
)

// Valid reports whether s is one of the known comment statuses.
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusSpam, CommentStatusRejected:
		return true
	}
	return false
}

// Comment belongs to a post and optionally replies to another comment on
// the same post. Exactly one of UserID or the author_* guest fields
// identifies the commenter.
type Comment struct {
	ID            uuid.UUID     `json:"id"`
	PostID        uuid.UUID     `json:"post_id"`
	UserID        *uuid.UUID    `json:"user_id,omitempty"`
	ParentID      *uuid.UUID    `json:"parent_id,omitempty"`
	AuthorName    *string       `json:"author_name,omitempty"`
	AuthorEmail   *string       `json:"author_email,omitempty"`
	AuthorWebsite *string       `json:"author_website,omitempty"`
	Content       string        `json:"content"`
	Status        CommentStatus `json:"status"`
	IPAddress     *string       `json:"ip_address,omitempty"`
	UserAgent     *string       `json:"user_agent,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Virtual field populated by store joins when UserID is set.
	User *User `json:"user,omitempty"`
}

// Commenter identifies who wrote a comment: either a registered user or a
// guest. The two cases are mutually exclusive.
type Commenter interface {
	DisplayName() string
}

// RegisteredCommenter is a comment author with a user account.
type RegisteredCommenter struct {
	UserID uuid.UUID
	Name   string
}

// DisplayName returns the registered user's display name.
func (c RegisteredCommenter) DisplayName() string { return c.Name }

// GuestCommenter is a comment author identified only by the name and
// email captured at submission time.
type GuestCommenter struct {
	Name    string
	Email   string
	Website string
}

// DisplayName returns the guest's submitted name, or a fallback label
// when the stored name is empty.
func (c GuestCommenter) DisplayName() string {
	if c.Name == "" {
		return "Anonymous"
	}
	return c.Name
}

// Commenter resolves the comment's author identity. A set UserID wins over
// guest fields; the User relation must be loaded for the registered name
// to resolve, otherwise the stored guest fields are used.
func (c *Comment) Commenter() Commenter {
	if c.UserID != nil {
		name := ""
		if c.User != nil {
			name = c.User.DisplayName
		}
		return RegisteredCommenter{UserID: *c.UserID, Name: name}
	}
	g := GuestCommenter{}
	if c.AuthorName != nil {
		g.Name = *c.AuthorName
	}
	if c.AuthorEmail != nil {
		g.Email = *c.AuthorEmail
	}
	if c.AuthorWebsite != nil {
		g.Website = *c.AuthorWebsite
	}
	return g
}

// DisplayName resolves the name shown next to the comment: the linked
// user's name, else the stored guest name, else "Anonymous".
func (c *Comment) DisplayName() string {
	if r, ok := c.Commenter().(RegisteredCommenter); ok && r.Name != "" {
		return r.Name
	}
	if g, ok := c.Commenter().(GuestCommenter); ok {
		return g.DisplayName()
	}
	return "Anonymous"
}

// CommentNode is one entry in the public two-level comment tree: an
// approved top-level comment plus its approved direct replies, both
// ordered newest-first.
type CommentNode struct {
	Comment
	Replies []Comment `json:"replies"`
}
