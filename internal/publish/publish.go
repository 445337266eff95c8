// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package publish implements the publication state machine for posts:
// status transitions between draft, scheduled, and published, the derived
// fields (slug, reading time) recomputed on create and update, and the
// visibility predicate applied to every public-facing read.
//
// Derivations are explicit functions of (previous state, new fields) so
// they can be tested without a database; the store invokes them before
// persisting.
package publish

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"itblog/internal/models"
	"itblog/internal/slug"
)

// ErrInvalidTransition signals a status change that violates the state
// machine rules, e.g. scheduling a post for a time that is not in the
// future.
var ErrInvalidTransition = errors.New("invalid publication transition")

// wordsPerMinute is the reading speed assumed for reading time estimates.
const wordsPerMinute = 200

// markupTags matches HTML/XML tags for StripMarkup.
var markupTags = regexp.MustCompile(`<[^>]*>`)

// Transition applies the status-dependent timestamp rules to p. prev is
// the stored state before the update, or nil on create.
//
//   - published: published_at defaults to now when absent. An explicitly
//     supplied past timestamp is kept (backdating), and a post that was
//     already published keeps its original timestamp.
//   - scheduled: published_at is forced to null; scheduled_at must be
//     strictly in the future or ErrInvalidTransition is returned.
//   - draft: both published_at and scheduled_at are forced to null.
//
// The status value itself must be validated before calling Transition;
// an unknown status is reported as an invalid transition.
func Transition(p *models.Post, prev *models.Post, now time.Time) error {
	switch p.Status {
	case models.PostStatusPublished:
		if p.PublishedAt == nil {
			if prev != nil && prev.Status == models.PostStatusPublished && prev.PublishedAt != nil {
				p.PublishedAt = prev.PublishedAt
			} else {
				t := now
				p.PublishedAt = &t
			}
		}
	case models.PostStatusScheduled:
		p.PublishedAt = nil
		if p.ScheduledAt == nil || !p.ScheduledAt.After(now) {
			return fmt.Errorf("%w: scheduled_at must be in the future", ErrInvalidTransition)
		}
	case models.PostStatusDraft:
		p.PublishedAt = nil
		p.ScheduledAt = nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, p.Status)
	}
	return nil
}

// DeriveSlug fills in p.Slug from the title when the caller left it empty.
// Title edits never regenerate an existing slug; clearing the slug field
// is the explicit way to request regeneration. Uniqueness is resolved by
// the store, which suffixes the result on collision.
func DeriveSlug(p *models.Post) {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Generate(p.Title)
	}
}

// ReadingTime estimates reading minutes for the given content:
// max(1, ceil(words/200)) over the markup-stripped text.
func ReadingTime(content string) int {
	words := len(strings.Fields(StripMarkup(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// StripMarkup removes HTML tags from s, replacing each with a space so
// adjacent words stay separated for counting.
func StripMarkup(s string) string {
	return markupTags.ReplaceAllString(s, " ")
}

// Visible reports whether the post is publicly visible at the given time:
// published status with a publish timestamp at or before now. A published
// post with a null or future published_at is not visible.
func Visible(p *models.Post, now time.Time) bool {
	return p.Status == models.PostStatusPublished &&
		p.PublishedAt != nil &&
		!p.PublishedAt.After(now)
}
