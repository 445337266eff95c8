// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"itblog/internal/middleware"
	"itblog/internal/models"
	"itblog/internal/publish"
)

// SubmitComment handles POST /blog/{slug}/comments. New comments always
// enter the moderation queue as pending.
func (h *PublicHandler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	now := time.Now()

	post, err := h.posts.FindBySlug(slugParam)
	if err != nil {
		slog.Error("loading post", "slug", slugParam, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if !publish.Visible(post, now) && sess == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if !post.AllowComments {
		writeError(w, http.StatusForbidden, "comments are closed for this post")
		return
	}

	var in commentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if errs := validateComment(&in, sess != nil); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	comment := &models.Comment{
		PostID:  post.ID,
		Content: strings.TrimSpace(in.Content),
		Status:  models.CommentStatusPending,
	}

	if sess != nil {
		comment.UserID = &sess.UserID
	} else {
		name := strings.TrimSpace(*in.AuthorName)
		email := strings.TrimSpace(*in.AuthorEmail)
		comment.AuthorName = &name
		comment.AuthorEmail = &email
		comment.AuthorWebsite = in.AuthorWebsite
	}

	if in.ParentID != nil && *in.ParentID != "" {
		parentID, err := uuid.Parse(*in.ParentID)
		if err != nil {
			writeValidationErrors(w, map[string]string{"parent_id": "parent_id must be a valid id"})
			return
		}
		parent, err := h.comments.FindByID(parentID)
		if err != nil {
			slog.Error("loading parent comment", "id", parentID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if parent == nil || parent.PostID != post.ID {
			writeValidationErrors(w, map[string]string{"parent_id": "parent comment not found"})
			return
		}
		comment.ParentID = &parentID
	}

	ip := middleware.ClientIP(r)
	ua := r.UserAgent()
	comment.IPAddress = &ip
	comment.UserAgent = &ua

	created, err := h.comments.Create(comment)
	if err != nil {
		slog.Error("creating comment", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())

	writeJSON(w, http.StatusCreated, map[string]any{
		"comment": created,
		"message": "comment submitted and awaiting moderation",
	})
}
