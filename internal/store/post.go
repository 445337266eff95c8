// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"itblog/internal/models"
	"itblog/internal/publish"
	"itblog/internal/slug"
)

// Page sizes are fixed per call site: the public blog shows 12 posts per
// page, the admin list 15.
const (
	PublicPageSize = 12
	AdminPageSize  = 15

	featuredLimit = 3
	relatedLimit  = 4
)

// PostFilters is the optional filter set for post listings. CategorySlug
// is the public variant, CategoryID the admin one; both resolve to the
// same equality predicate on posts.category_id. Status is admin-only —
// public listings always apply the visibility predicate instead.
type PostFilters struct {
	Search       string
	CategorySlug string
	CategoryID   *uuid.UUID
	TagSlug      string
	Status       models.PostStatus
}

// PostPage is one page of a post listing plus the pagination totals the
// caller needs to render navigation.
type PostPage struct {
	Items    []models.Post `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
	LastPage int           `json:"last_page"`
}

// PostStore handles all post-related database operations. Create and
// Update run the publish package's derivation hooks (slug, reading time,
// status transition rules) before persisting.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns selects the post row plus the eagerly joined category and
// author fields, so listings never fan out into per-row queries.
const postColumns = `p.id, p.title, p.slug, p.excerpt, p.content, p.featured_image,
	p.category_id, p.user_id, p.status, p.published_at, p.scheduled_at,
	p.is_featured, p.allow_comments, p.views_count, p.comments_count,
	p.reading_time, p.meta_data, p.created_at, p.updated_at,
	c.name, c.slug, c.color, c.icon, c.is_active,
	u.display_name`

const postFrom = ` FROM posts p
	JOIN categories c ON c.id = p.category_id
	JOIN users u ON u.id = p.user_id`

// scanPost scans a joined post row including the category and author relations.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var cat models.Category
	var author models.User
	var meta []byte

	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.FeaturedImage,
		&p.CategoryID, &p.UserID, &p.Status, &p.PublishedAt, &p.ScheduledAt,
		&p.IsFeatured, &p.AllowComments, &p.ViewsCount, &p.CommentsCount,
		&p.ReadingTime, &meta, &p.CreatedAt, &p.UpdatedAt,
		&cat.Name, &cat.Slug, &cat.Color, &cat.Icon, &cat.IsActive,
		&author.DisplayName,
	)
	if err != nil {
		return nil, err
	}

	if len(meta) > 0 {
		p.Meta = &models.PostMeta{}
		if err := json.Unmarshal(meta, p.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal post meta: %w", err)
		}
	}

	cat.ID = p.CategoryID
	author.ID = p.UserID
	p.Category = &cat
	p.Author = &author
	return &p, nil
}

// ListPublic returns one page of publicly visible posts matching the
// filter set, ordered by publish date descending. The visibility
// predicate (published status, publish timestamp at or before now) is
// always applied regardless of filters. Search matches title, excerpt,
// or content case-insensitively.
func (s *PostStore) ListPublic(f PostFilters, page int, now time.Time) (*PostPage, error) {
	where := []string{"p.status = 'published'", "p.published_at <= $1"}
	args := []any{now}

	if f.Search != "" {
		pat := "%" + f.Search + "%"
		where = append(where, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.excerpt ILIKE $%d OR p.content ILIKE $%d)",
			len(args)+1, len(args)+2, len(args)+3))
		args = append(args, pat, pat, pat)
	}
	if f.CategorySlug != "" {
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)+1))
		args = append(args, f.CategorySlug)
	}
	if f.TagSlug != "" {
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			 WHERE pt.post_id = p.id AND t.slug = $%d)`, len(args)+1))
		args = append(args, f.TagSlug)
	}

	return s.list(where, args, "p.published_at DESC", PublicPageSize, page)
}

// ListAdmin returns one page of posts for the admin list, ordered by
// creation date descending. All statuses are included unless filtered.
// Admin search skips the content column — title and excerpt only.
func (s *PostStore) ListAdmin(f PostFilters, page int) (*PostPage, error) {
	var where []string
	var args []any

	if f.Status != "" {
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, f.Status)
	}
	if f.CategoryID != nil {
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)+1))
		args = append(args, *f.CategoryID)
	}
	if f.Search != "" {
		pat := "%" + f.Search + "%"
		where = append(where, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.excerpt ILIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, pat, pat)
	}

	return s.list(where, args, "p.created_at DESC", AdminPageSize, page)
}

// list runs the composed listing query: a COUNT over the same predicates
// for the pagination totals, then the page itself with a batched tag load.
func (s *PostStore) list(where []string, args []any, orderBy string, perPage, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := s.db.QueryRow("SELECT COUNT(*)"+postFrom+cond, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	query := fmt.Sprintf("SELECT %s%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		postColumns, postFrom, cond, orderBy, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(items); err != nil {
		return nil, err
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	return &PostPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage,
	}, nil
}

// Featured returns up to 3 visible featured posts, newest first. Shown in
// the hero section of an unfiltered first blog page.
func (s *PostStore) Featured(now time.Time) ([]models.Post, error) {
	rows, err := s.db.Query(
		"SELECT "+postColumns+postFrom+
			` WHERE p.status = 'published' AND p.published_at <= $1 AND p.is_featured
			 ORDER BY p.published_at DESC LIMIT $2`, now, featuredLimit)
	if err != nil {
		return nil, fmt.Errorf("featured posts: %w", err)
	}
	defer rows.Close()

	items, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Related returns up to 4 other visible posts sharing the given post's
// category or at least one of its tags, newest first. A plain OR match
// ordered by recency — no similarity scoring, never padded.
func (s *PostStore) Related(post *models.Post, now time.Time) ([]models.Post, error) {
	rows, err := s.db.Query(
		"SELECT "+postColumns+postFrom+
			` WHERE p.id <> $1 AND p.status = 'published' AND p.published_at <= $2
			 AND (p.category_id = $3 OR EXISTS (
				SELECT 1 FROM post_tags pt
				WHERE pt.post_id = p.id
				  AND pt.tag_id IN (SELECT tag_id FROM post_tags WHERE post_id = $1)))
			 ORDER BY p.published_at DESC LIMIT $4`,
		post.ID, now, post.CategoryID, relatedLimit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	defer rows.Close()

	items, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

// collectPosts scans all rows of a postColumns query.
func collectPosts(rows *sql.Rows) ([]models.Post, error) {
	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a post with its relations by UUID. Returns nil if
// not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow("SELECT "+postColumns+postFrom+" WHERE p.id = $1", id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	if err := s.loadTagsOne(p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of status. Returns nil
// if not found. Callers decide visibility with publish.Visible — drafts
// must stay reachable for authenticated previews.
func (s *PostStore) FindBySlug(slugParam string) (*models.Post, error) {
	row := s.db.QueryRow("SELECT "+postColumns+postFrom+" WHERE p.slug = $1", slugParam)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	if err := s.loadTagsOne(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Create runs the derivation hooks on p (slug from title when empty,
// reading time from content, transition timestamp rules), resolves slug
// uniqueness by suffixing, and inserts the post. Returns the stored post
// with relations loaded, or publish.ErrInvalidTransition.
func (s *PostStore) Create(p *models.Post, now time.Time) (*models.Post, error) {
	publish.DeriveSlug(p)
	unique, err := s.uniqueSlug(p.Slug, uuid.Nil)
	if err != nil {
		return nil, err
	}
	p.Slug = unique
	p.ReadingTime = publish.ReadingTime(p.Content)

	if err := publish.Transition(p, nil, now); err != nil {
		return nil, err
	}

	meta, err := marshalMeta(p.Meta)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.db.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, content, featured_image,
			category_id, user_id, status, published_at, scheduled_at,
			is_featured, allow_comments, reading_time, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage,
		p.CategoryID, p.UserID, p.Status, p.PublishedAt, p.ScheduledAt,
		p.IsFeatured, p.AllowComments, p.ReadingTime, meta,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	return s.FindByID(id)
}

// Update runs the derivation hooks against the stored state and persists
// the changes. Reading time is recomputed only when the content changed;
// an emptied slug is re-derived from the title. The views and comments
// counters are never written here — they are maintained by their own
// atomic updates. Returns nil if the post does not exist.
func (s *PostStore) Update(p *models.Post, now time.Time) (*models.Post, error) {
	old, err := s.FindByID(p.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, nil
	}

	publish.DeriveSlug(p)
	unique, err := s.uniqueSlug(p.Slug, p.ID)
	if err != nil {
		return nil, err
	}
	p.Slug = unique

	if p.Content != old.Content {
		p.ReadingTime = publish.ReadingTime(p.Content)
	} else {
		p.ReadingTime = old.ReadingTime
	}

	if err := publish.Transition(p, old, now); err != nil {
		return nil, err
	}

	meta, err := marshalMeta(p.Meta)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`
		UPDATE posts SET
			title = $1, slug = $2, excerpt = $3, content = $4, featured_image = $5,
			category_id = $6, status = $7, published_at = $8, scheduled_at = $9,
			is_featured = $10, allow_comments = $11, reading_time = $12,
			meta_data = $13, updated_at = NOW()
		WHERE id = $14
	`, p.Title, p.Slug, p.Excerpt, p.Content, p.FeaturedImage,
		p.CategoryID, p.Status, p.PublishedAt, p.ScheduledAt,
		p.IsFeatured, p.AllowComments, p.ReadingTime, meta, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return s.FindByID(p.ID)
}

// Delete removes a post by ID. Comments and tag associations cascade at
// the schema level. Returns false if no post matched.
func (s *PostStore) Delete(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementViews bumps the post's view counter with a single atomic
// UPDATE so concurrent page views never lose increments.
func (s *PostStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE posts SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// SyncTags replaces the post's tag associations with exactly the given
// set, in one transaction.
func (s *PostStore) SyncTags(postID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		if _, err := tx.Exec(
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, tagID); err != nil {
			return fmt.Errorf("attach tag %s: %w", tagID, err)
		}
	}

	return tx.Commit()
}

// PostStats aggregates the admin dashboard counters in one query.
type PostStats struct {
	Total      int `json:"total"`
	Published  int `json:"published"`
	Drafts     int `json:"drafts"`
	Scheduled  int `json:"scheduled"`
	TotalViews int `json:"total_views"`
}

// Stats returns admin dashboard post counters. Published counts only
// currently visible posts.
func (s *PostStore) Stats(now time.Time) (*PostStats, error) {
	st := &PostStats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'published' AND published_at <= $1),
		       COUNT(*) FILTER (WHERE status = 'draft'),
		       COUNT(*) FILTER (WHERE status = 'scheduled'),
		       COALESCE(SUM(views_count), 0)
		FROM posts
	`, now).Scan(&st.Total, &st.Published, &st.Drafts, &st.Scheduled, &st.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("post stats: %w", err)
	}
	return st, nil
}

// VisibleStats returns the public welcome-page counters: number of
// visible posts and their accumulated views.
func (s *PostStore) VisibleStats(now time.Time) (posts int, views int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(views_count), 0)
		FROM posts WHERE status = 'published' AND published_at <= $1
	`, now).Scan(&posts, &views)
	if err != nil {
		return 0, 0, fmt.Errorf("visible post stats: %w", err)
	}
	return posts, views, nil
}

// Recent returns the most recently created posts for the admin dashboard.
func (s *PostStore) Recent(limit int) ([]models.Post, error) {
	rows, err := s.db.Query(
		"SELECT "+postColumns+postFrom+" ORDER BY p.created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	defer rows.Close()

	items, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

// uniqueSlug returns base, or base with the lowest numeric suffix that
// does not collide with another post's slug. exclude skips the post's own
// row on update (uuid.Nil on create matches nothing). A title of only
// symbols or non-Latin characters derives an empty base; slugs must never
// be empty, so a short random id stands in.
func (s *PostStore) uniqueSlug(base string, exclude uuid.UUID) (string, error) {
	if base == "" {
		base = "post-" + uuid.NewString()[:8]
	}
	candidate := base
	for i := 2; ; i++ {
		var exists bool
		err := s.db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
			candidate, exclude).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = slug.Suffix(base, i)
	}
}

// loadTags fetches the tags for all given posts in a single batched query.
func (s *PostStore) loadTags(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	index := make(map[uuid.UUID]int, len(posts))
	for i := range posts {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = posts[i].ID
		index[posts[i].ID] = i
	}

	rows, err := s.db.Query(`
		SELECT pt.post_id, t.id, t.name, t.slug, t.description, t.color,
		       t.created_at, t.updated_at
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY t.name
	`, args...)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &t.Description,
			&t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("scan post tag: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	return rows.Err()
}

// loadTagsOne fetches tags for a single post.
func (s *PostStore) loadTagsOne(p *models.Post) error {
	batch := []models.Post{*p}
	if err := s.loadTags(batch); err != nil {
		return err
	}
	p.Tags = batch[0].Tags
	return nil
}

// marshalMeta encodes the SEO metadata for the JSONB column; nil stays NULL.
func marshalMeta(m *models.PostMeta) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal post meta: %w", err)
	}
	return b, nil
}
