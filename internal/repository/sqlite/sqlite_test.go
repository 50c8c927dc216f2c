package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sakif/news-aggregator/internal/model"
)

// newTestDB opens a fresh in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCategory(t *testing.T, db *DB, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name}
	if err := db.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return category
}

func seedUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

// seedArticle stores a canonical article with a source URL derived from the
// title, so distinct titles never collide on the dedup key.
func seedArticle(t *testing.T, db *DB, title, categoryID string, publishedAt time.Time) *model.Article {
	t.Helper()
	article := &model.Article{
		Title:       title,
		Description: "description of " + title,
		Content:     "content of " + title,
		SourceURL:   "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		SourceName:  "Test Source",
		PublishedAt: publishedAt,
		CategoryID:  categoryID,
	}
	if err := db.CreateArticle(context.Background(), article); err != nil {
		t.Fatalf("failed to seed article %q: %v", title, err)
	}
	return article
}

func seedSavedCopy(t *testing.T, db *DB, source *model.Article, userID string) *model.Article {
	t.Helper()
	saved := &model.Article{
		Title:       source.Title,
		Description: source.Description,
		Content:     source.Content,
		ImageURL:    source.ImageURL,
		SourceURL:   source.SourceURL,
		SourceName:  source.SourceName,
		PublishedAt: source.PublishedAt,
		CategoryID:  source.CategoryID,
		OwnerUserID: userID,
		IsSaved:     true,
	}
	if err := db.CreateArticle(context.Background(), saved); err != nil {
		t.Fatalf("failed to seed saved copy of %q: %v", source.Title, err)
	}
	return saved
}
