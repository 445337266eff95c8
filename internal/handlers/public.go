// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"itblog/internal/cache"
	"itblog/internal/markdown"
	"itblog/internal/middleware"
	"itblog/internal/publish"
	"itblog/internal/store"
)

// popularTagLimit caps the tag cloud on public listing pages.
const popularTagLimit = 20

// PublicHandler serves the visitor-facing blog endpoints. Listing
// responses are cached in Valkey keyed by the full request URI.
type PublicHandler struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	comments   *store.CommentStore
	listings   *cache.ListingCache
}

func NewPublicHandler(posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore, comments *store.CommentStore, listings *cache.ListingCache) *PublicHandler {
	return &PublicHandler{
		posts:      posts,
		categories: categories,
		tags:       tags,
		comments:   comments,
		listings:   listings,
	}
}

// Welcome handles GET / with headline stats for the landing page.
func (h *PublicHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	posts, views, err := h.posts.VisibleStats(now)
	if err != nil {
		slog.Error("loading welcome stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	categories, err := h.categories.CountActive()
	if err != nil {
		slog.Error("counting categories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]int{
			"posts":      posts,
			"categories": categories,
			"views":      views,
		},
	})
}

// Index handles GET /blog: the public listing with search, category and
// tag filters. Featured posts are included only on the first page of the
// unfiltered listing.
func (h *PublicHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := r.URL.RequestURI()
	if payload, ok := h.listings.Get(ctx, cacheKey); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
		return
	}

	q := r.URL.Query()
	filters := store.PostFilters{
		Search:       q.Get("search"),
		CategorySlug: q.Get("category"),
		TagSlug:      q.Get("tag"),
	}
	page := parsePage(q.Get("page"))
	now := time.Now()

	listing, err := h.posts.ListPublic(filters, page, now)
	if err != nil {
		slog.Error("listing posts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	payload := map[string]any{
		"posts": listing,
		"filters": map[string]string{
			"search":   filters.Search,
			"category": filters.CategorySlug,
			"tag":      filters.TagSlug,
		},
	}

	unfiltered := filters.Search == "" && filters.CategorySlug == "" && filters.TagSlug == ""
	if unfiltered && page == 1 {
		featured, err := h.posts.Featured(now)
		if err != nil {
			slog.Error("loading featured posts", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		payload["featured_posts"] = featured
	}

	facets, err := h.categories.Facets(now)
	if err != nil {
		slog.Error("loading category facets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload["categories"] = facets

	popular, err := h.tags.Popular(popularTagLimit, now)
	if err != nil {
		slog.Error("loading popular tags", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload["popular_tags"] = popular

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encoding listing", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.listings.Set(ctx, cacheKey, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Show handles GET /blog/{slug}. Posts that are not yet visible return
// 404 for anonymous visitors; a signed-in author sees a preview.
func (h *PublicHandler) Show(w http.ResponseWriter, r *http.Request) {
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

	// View counts are best effort and never block the response.
	if publish.Visible(post, now) {
		go func() {
			if err := h.posts.IncrementViews(post.ID); err != nil {
				slog.Error("incrementing views", "post", post.ID, "error", err)
			}
		}()
	}

	contentHTML, err := markdown.ToHTML(post.Content)
	if err != nil {
		slog.Error("rendering content", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	related, err := h.posts.Related(post, now)
	if err != nil {
		slog.Error("loading related posts", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	comments, err := h.comments.ApprovedTree(post.ID)
	if err != nil {
		slog.Error("loading comments", "post", post.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"post":          post,
		"content_html":  contentHTML,
		"related_posts": related,
		"comments":      comments,
	})
}

// Health handles GET /health for load balancer probes.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
