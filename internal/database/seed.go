package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user plus a starter set of categories and tags. It is a no-op
// when users already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
	`, "admin@itblog.local", string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	categories := []struct {
		name, slug, color, icon string
	}{
		{"DevOps", "devops", "#2563eb", "server"},
		{"Programming", "programming", "#16a34a", "code"},
		{"Security", "security", "#dc2626", "shield"},
		{"Databases", "databases", "#9333ea", "database"},
	}
	for i, c := range categories {
		_, err = db.Exec(`
			INSERT INTO categories (name, slug, color, icon, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, c.name, c.slug, c.color, c.icon, i)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.slug, err)
		}
	}

	tags := []struct{ name, slug string }{
		{"Go", "go"},
		{"Kubernetes", "kubernetes"},
		{"PostgreSQL", "postgresql"},
		{"Linux", "linux"},
		{"Docker", "docker"},
		{"CI/CD", "ci-cd"},
	}
	for _, t := range tags {
		_, err = db.Exec(`INSERT INTO tags (name, slug) VALUES ($1, $2)`, t.name, t.slug)
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", t.slug, err)
		}
	}

	_, err = db.Exec(`
		INSERT INTO posts (title, slug, excerpt, content, category_id, user_id,
			status, published_at, reading_time)
		SELECT 'Welcome to the blog', 'welcome-to-the-blog',
			'First post on a fresh install.',
			'# Welcome' || E'\n\n' || 'This post was created by the development seed. Write something better.',
			c.id, u.id, 'published', NOW(), 1
		FROM categories c, users u
		WHERE c.slug = 'programming' AND u.email = 'admin@itblog.local'
	`)
	if err != nil {
		return fmt.Errorf("seed sample post: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@itblog.local",
		"password", "admin",
	)

	return nil
}
