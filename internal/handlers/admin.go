// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"itblog/internal/cache"
	"itblog/internal/middleware"
	"itblog/internal/models"
	"itblog/internal/publish"
	"itblog/internal/slug"
	"itblog/internal/store"
)

// recentPostLimit bounds the recent-posts widget on the dashboard.
const recentPostLimit = 5

// AdminHandler serves the authenticated management endpoints.
type AdminHandler struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	comments   *store.CommentStore
	listings   *cache.ListingCache
}

func NewAdminHandler(posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore, comments *store.CommentStore, listings *cache.ListingCache) *AdminHandler {
	return &AdminHandler{
		posts:      posts,
		categories: categories,
		tags:       tags,
		comments:   comments,
		listings:   listings,
	}
}

// Dashboard handles GET /admin with post counters, comment queue sizes
// and the most recent posts.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	stats, err := h.posts.Stats(now)
	if err != nil {
		slog.Error("loading post stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	pending, err := h.comments.CountByStatus(models.CommentStatusPending)
	if err != nil {
		slog.Error("counting pending comments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	approved, err := h.comments.CountByStatus(models.CommentStatusApproved)
	if err != nil {
		slog.Error("counting approved comments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	recent, err := h.posts.Recent(recentPostLimit)
	if err != nil {
		slog.Error("loading recent posts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": stats,
		"comments": map[string]int{
			"pending":  pending,
			"approved": approved,
		},
		"recent_posts": recent,
	})
}

// ListPosts handles GET /admin/posts with status, category and search
// filters over all posts regardless of visibility.
func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := store.PostFilters{
		Search: q.Get("search"),
		Status: models.PostStatus(q.Get("status")),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeValidationErrors(w, map[string]string{"category_id": "category_id must be a valid id"})
			return
		}
		filters.CategoryID = &id
	}

	listing, err := h.posts.ListAdmin(filters, parsePage(q.Get("page")))
	if err != nil {
		slog.Error("listing posts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// ShowPost handles GET /admin/posts/{id}.
func (h *AdminHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("loading post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /admin/posts.
func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validatePost(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	post, errs := h.postFromInput(&in)
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	post.UserID = sess.UserID

	created, err := h.posts.Create(post, time.Now())
	if err != nil {
		if errors.Is(err, publish.ErrInvalidTransition) {
			writeValidationErrors(w, map[string]string{"scheduled_at": "scheduled posts need a future scheduled_at"})
			return
		}
		slog.Error("creating post", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if created, err = h.syncPostTags(created, in.TagIDs); err != nil {
		slog.Error("syncing tags", "post", created.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost handles PUT /admin/posts/{id}.
func (h *AdminHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	existing, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("loading post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	var in postInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validatePost(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	post, errs := h.postFromInput(&in)
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	post.ID = existing.ID
	post.UserID = existing.UserID

	updated, err := h.posts.Update(post, time.Now())
	if err != nil {
		if errors.Is(err, publish.ErrInvalidTransition) {
			writeValidationErrors(w, map[string]string{"scheduled_at": "scheduled posts need a future scheduled_at"})
			return
		}
		slog.Error("updating post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if updated, err = h.syncPostTags(updated, in.TagIDs); err != nil {
		slog.Error("syncing tags", "post", updated.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost handles DELETE /admin/posts/{id}.
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.posts.Delete(id)
	if err != nil {
		slog.Error("deleting post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// postFromInput builds a Post from a validated request body. UUID and
// timestamp parsing can still fail field-by-field.
func (h *AdminHandler) postFromInput(in *postInput) (*models.Post, map[string]string) {
	errs := make(map[string]string)

	categoryID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		errs["category_id"] = "category_id must be a valid id"
	} else {
		category, err := h.categories.FindByID(categoryID)
		if err != nil {
			errs["category_id"] = "category lookup failed"
		} else if category == nil {
			errs["category_id"] = "category not found"
		}
	}

	post := &models.Post{
		Title:         strings.TrimSpace(in.Title),
		Slug:          strings.TrimSpace(in.Slug),
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		FeaturedImage: in.FeaturedImage,
		CategoryID:    categoryID,
		Status:        models.PostStatus(in.Status),
		IsFeatured:    in.IsFeatured,
		AllowComments: true,
		Meta:          in.Meta,
	}
	if in.AllowComments != nil {
		post.AllowComments = *in.AllowComments
	}

	// An explicit published_at backdates the post; when absent the
	// transition rules stamp it.
	post.PublishedAt = parseTime(in.PublishedAt, "published_at", errs)
	post.ScheduledAt = parseTime(in.ScheduledAt, "scheduled_at", errs)

	if len(errs) > 0 {
		return nil, errs
	}
	return post, nil
}

// syncPostTags replaces the post's tag set and reloads the post so the
// response carries the fresh associations.
func (h *AdminHandler) syncPostTags(post *models.Post, rawIDs []string) (*models.Post, error) {
	if rawIDs == nil {
		return post, nil
	}

	tagIDs := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		tagIDs = append(tagIDs, id)
	}

	if err := h.posts.SyncTags(post.ID, tagIDs); err != nil {
		return nil, err
	}
	return h.posts.FindByID(post.ID)
}

// ListCategories handles GET /admin/categories.
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List()
	if err != nil {
		slog.Error("listing categories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /admin/categories.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validateCategory(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	category := categoryFromInput(&in)
	created, err := h.categories.Create(category)
	if err != nil {
		slog.Error("creating category", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCategory handles PUT /admin/categories/{id}.
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	existing, err := h.categories.FindByID(id)
	if err != nil {
		slog.Error("loading category", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	var in categoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validateCategory(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	category := categoryFromInput(&in)
	category.ID = existing.ID
	if err := h.categories.Update(category); err != nil {
		slog.Error("updating category", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /admin/categories/{id}. Posts in the
// category are removed with it.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.categories.Delete(id)
	if err != nil {
		slog.Error("deleting category", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListTags handles GET /admin/tags.
func (h *AdminHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List()
	if err != nil {
		slog.Error("listing tags", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// CreateTag handles POST /admin/tags.
func (h *AdminHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in tagInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validateTag(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	tag := tagFromInput(&in)
	created, err := h.tags.Create(tag)
	if err != nil {
		slog.Error("creating tag", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTag handles PUT /admin/tags/{id}.
func (h *AdminHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	existing, err := h.tags.FindByID(id)
	if err != nil {
		slog.Error("loading tag", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}

	var in tagInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validateTag(&in); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	tag := tagFromInput(&in)
	tag.ID = existing.ID
	if err := h.tags.Update(tag); err != nil {
		slog.Error("updating tag", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, tag)
}

// DeleteTag handles DELETE /admin/tags/{id}.
func (h *AdminHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.tags.Delete(id)
	if err != nil {
		slog.Error("deleting tag", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "tag deleted"})
}

// ListComments handles GET /admin/comments?status=pending for the
// moderation queue.
func (h *AdminHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	status := models.CommentStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.CommentStatusPending
	}
	if !status.Valid() {
		writeValidationErrors(w, map[string]string{"status": "status must be pending, approved, spam or rejected"})
		return
	}

	comments, err := h.comments.ListByStatus(status, 100)
	if err != nil {
		slog.Error("listing comments", "status", status, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// ModerateComment handles PUT /admin/comments/{id}/status. Moderation is
// idempotent: re-applying the current status is a no-op.
func (h *AdminHandler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := models.CommentStatus(in.Status)
	if !status.Valid() {
		writeValidationErrors(w, map[string]string{"status": "status must be pending, approved, spam or rejected"})
		return
	}

	found, err := h.comments.Moderate(id, status)
	if err != nil {
		slog.Error("moderating comment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "comment " + string(status)})
}

// DeleteComment handles DELETE /admin/comments/{id}. Replies go with the
// parent.
func (h *AdminHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.comments.Delete(id)
	if err != nil {
		slog.Error("deleting comment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	h.listings.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

func categoryFromInput(in *categoryInput) *models.Category {
	category := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		IsActive:    true,
		SortOrder:   in.SortOrder,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	if category.Slug == "" {
		category.Slug = slug.Generate(category.Name)
	}
	return category
}

func tagFromInput(in *tagInput) *models.Tag {
	tag := &models.Tag{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		Color:       in.Color,
	}
	if tag.Slug == "" {
		tag.Slug = slug.Generate(tag.Name)
	}
	return tag
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}
