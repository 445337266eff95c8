// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"itblog/internal/database"
	"itblog/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "itblog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "itblog")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway author and registers its removal. Posts
// and comments hang off it via ON DELETE CASCADE.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	email := "test-" + uuid.NewString()[:8] + "@example.com"
	user, err := NewUserStore(db).Create(email, "password123", "Test Author", "admin")
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", user.ID) })
	return user
}

// testCategory creates a throwaway active category and registers its
// removal, which cascades to its posts.
func testCategory(t *testing.T, db *sql.DB) *models.Category {
	t.Helper()
	suffix := uuid.NewString()[:8]
	category, err := NewCategoryStore(db).Create(&models.Category{
		Name:     "Test Category " + suffix,
		Slug:     "test-category-" + suffix,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("creating test category: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM categories WHERE id = $1", category.ID) })
	return category
}

func testTag(t *testing.T, db *sql.DB) *models.Tag {
	t.Helper()
	suffix := uuid.NewString()[:8]
	tag, err := NewTagStore(db).Create(&models.Tag{
		Name: "test-tag-" + suffix,
		Slug: "test-tag-" + suffix,
	})
	if err != nil {
		t.Fatalf("creating test tag: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM tags WHERE id = $1", tag.ID) })
	return tag
}

// publishedPost creates a visible post in the given category.
func publishedPost(t *testing.T, db *sql.DB, title string, category *models.Category, author *models.User) *models.Post {
	t.Helper()
	at := time.Now().Add(-time.Hour)
	post, err := NewPostStore(db).Create(&models.Post{
		Title:         title + " " + uuid.NewString()[:8],
		Content:       "Some test content for " + title + ".",
		CategoryID:    category.ID,
		UserID:        author.ID,
		Status:        models.PostStatusPublished,
		PublishedAt:   &at,
		AllowComments: true,
	}, time.Now())
	if err != nil {
		t.Fatalf("creating published post: %v", err)
	}
	return post
}
