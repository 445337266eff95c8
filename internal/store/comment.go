// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"itblog/internal/models"
)

// CommentStore manages comments: creation, the public approved tree, and
// moderation. Every operation that can change a post's set of approved
// comments recounts the post's denormalized comments_count with a fresh
// aggregate, never an in-place increment, so concurrent moderation
// actions converge on the correct value.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `c.id, c.post_id, c.user_id, c.parent_id,
	c.author_name, c.author_email, c.author_website, c.content, c.status,
	c.ip_address, c.user_agent, c.created_at, c.updated_at`

// scanComment scans a comment row joined with the optional user relation.
func scanComment(scanner interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	var userName sql.NullString
	err := scanner.Scan(
		&c.ID, &c.PostID, &c.UserID, &c.ParentID,
		&c.AuthorName, &c.AuthorEmail, &c.AuthorWebsite, &c.Content, &c.Status,
		&c.IPAddress, &c.UserAgent, &c.CreatedAt, &c.UpdatedAt,
		&userName,
	)
	if err != nil {
		return nil, err
	}
	if c.UserID != nil && userName.Valid {
		c.User = &models.User{ID: *c.UserID, DisplayName: userName.String}
	}
	return &c, nil
}

// ApprovedTree returns the public comment tree for a post: approved
// top-level comments carrying their approved replies, newest first at
// both levels. A reply deeper than one level is flattened under its
// nearest approved top-level ancestor; replies whose ancestor chain never
// reaches an approved top-level comment are dropped (an invisible parent
// hides its thread).
func (s *CommentStore) ApprovedTree(postID uuid.UUID) ([]models.CommentNode, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+`, u.display_name
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1 AND c.status = 'approved'
		ORDER BY c.created_at DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("approved comments: %w", err)
	}
	defer rows.Close()

	var flat []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		flat = append(flat, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assembleTree(flat), nil
}

// assembleTree groups a flat approved-comment list (newest first) into
// two levels in a single pass over an id-indexed map.
func assembleTree(flat []models.Comment) []models.CommentNode {
	byID := make(map[uuid.UUID]*models.Comment, len(flat))
	for i := range flat {
		byID[flat[i].ID] = &flat[i]
	}

	nodes := make([]models.CommentNode, 0, len(flat))
	nodeIndex := make(map[uuid.UUID]int, len(flat))
	for _, c := range flat {
		if c.ParentID == nil {
			nodeIndex[c.ID] = len(nodes)
			nodes = append(nodes, models.CommentNode{Comment: c})
		}
	}

	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		if root, ok := topLevelAncestor(&c, byID); ok {
			i := nodeIndex[root]
			nodes[i].Replies = append(nodes[i].Replies, c)
		}
	}

	return nodes
}

// topLevelAncestor walks the parent chain inside the approved set and
// returns the id of the top-level ancestor, or false when the chain
// leaves the set (non-approved parent) or is cyclic.
func topLevelAncestor(c *models.Comment, byID map[uuid.UUID]*models.Comment) (uuid.UUID, bool) {
	cur := c
	for depth := 0; depth < len(byID); depth++ {
		if cur.ParentID == nil {
			return cur.ID, true
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			return uuid.Nil, false
		}
		cur = parent
	}
	return uuid.Nil, false
}

// FindByID retrieves a comment by ID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	row := s.db.QueryRow(`
		SELECT `+commentColumns+`, u.display_name
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Create inserts a new comment and recounts the post's approved total
// (a no-op numerically unless the comment was created approved).
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO comments (post_id, user_id, parent_id, author_name,
			author_email, author_website, content, status, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, c.PostID, c.UserID, c.ParentID, c.AuthorName,
		c.AuthorEmail, c.AuthorWebsite, c.Content, c.Status, c.IPAddress, c.UserAgent,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if err := s.RecountPost(c.PostID); err != nil {
		return nil, err
	}

	return s.FindByID(id)
}

// Moderate transitions a comment to the given status. Any status may move
// to any other; the post's comments_count is recounted afterwards so the
// cached total always matches the approved set. Returns false if the
// comment does not exist. The status value must be validated by the caller.
func (s *CommentStore) Moderate(id uuid.UUID, status models.CommentStatus) (bool, error) {
	var postID uuid.UUID
	err := s.db.QueryRow(`
		UPDATE comments SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING post_id
	`, status, id).Scan(&postID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("moderate comment: %w", err)
	}

	if err := s.RecountPost(postID); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a comment; its replies cascade at the schema level.
// The owning post's approved count is recounted. Returns false if no
// comment matched.
func (s *CommentStore) Delete(id uuid.UUID) (bool, error) {
	var postID uuid.UUID
	err := s.db.QueryRow(`DELETE FROM comments WHERE id = $1 RETURNING post_id`, id).Scan(&postID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}

	if err := s.RecountPost(postID); err != nil {
		return false, err
	}
	return true, nil
}

// RecountPost refreshes the post's denormalized comments_count from a
// fresh aggregate of approved comments. Idempotent: safe to run after
// any comment mutation, concurrent runs all converge on the same value.
func (s *CommentStore) RecountPost(postID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE posts SET comments_count = (
			SELECT COUNT(*) FROM comments
			WHERE post_id = $1 AND status = 'approved'
		)
		WHERE id = $1
	`, postID)
	if err != nil {
		return fmt.Errorf("recount comments: %w", err)
	}
	return nil
}

// ListByStatus returns comments in the given moderation state, newest
// first. Used by the admin moderation queue.
func (s *CommentStore) ListByStatus(status models.CommentStatus, limit int) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+`, u.display_name
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.status = $1
		ORDER BY c.created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments by status: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// CountByStatus returns the number of comments in the given state.
func (s *CommentStore) CountByStatus(status models.CommentStatus) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}
