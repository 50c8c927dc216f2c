// Package repository declares the persistence interfaces the services
// depend on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory mocks. Services never import sqlite directly.
package repository

import (
	"context"

	"github.com/sakif/news-aggregator/internal/model"
)

// FeedOptions bounds the read queries over canonical articles.
type FeedOptions struct {
	Limit int
}

// ArticleRepository persists canonical articles and saved copies.
//
// The canonical dedup key is the raw (title, sourceUrl) pair — no case or
// whitespace normalization. CreateArticle must reject a second canonical
// article with an existing key (Conflict), which keeps re-ingestion
// idempotent even under concurrent writers.
type ArticleRepository interface {
	// CreateArticle inserts an article (canonical or saved copy), generating
	// its ID and timestamps. Returns a Conflict error when a canonical
	// article with the same (title, sourceUrl) already exists.
	CreateArticle(ctx context.Context, article *model.Article) error

	// GetArticleByID returns the article with the given ID, canonical or saved.
	GetArticleByID(ctx context.Context, id string) (*model.Article, error)

	// ExistsCanonical reports whether a canonical article with the given
	// dedup key is already stored.
	ExistsCanonical(ctx context.Context, title, sourceURL string) (bool, error)

	// ListByCategories returns canonical articles in any of the given
	// categories, newest publishedAt first.
	ListByCategories(ctx context.Context, categoryIDs []string, opts FeedOptions) ([]model.Article, error)

	// SearchArticles returns canonical articles whose title, description, or
	// content contains the query as a case-insensitive substring, newest first.
	SearchArticles(ctx context.Context, query string, opts FeedOptions) ([]model.Article, error)

	// ListSaved returns the user's saved copies, newest creation first.
	ListSaved(ctx context.Context, userID string) ([]model.Article, error)

	// DeleteSaved removes the saved copy with the given ID if it belongs to
	// the user. Returns NotFound otherwise — including when the ID refers to
	// a canonical article or another user's copy.
	DeleteSaved(ctx context.Context, userID, articleID string) error

	// CountByCategory counts all articles (canonical and saved) that still
	// reference the category. Used to block category deletion.
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryRepository persists the category catalog.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// PreferenceRepository persists which categories each user follows.
type PreferenceRepository interface {
	// ListPreferences returns the user's preferences in creation order.
	ListPreferences(ctx context.Context, userID string) ([]model.Preference, error)

	// ReplacePreferences atomically swaps the user's preference set for the
	// given category IDs: delete all existing rows, insert one row per ID,
	// in a single transaction. A failure partway through leaves the old set
	// intact. Unknown category IDs fail the whole operation.
	ReplacePreferences(ctx context.Context, userID string, categoryIDs []string) ([]model.Preference, error)

	// CountPreferencesByCategory counts preference rows referencing the
	// category, across all users. Used to block category deletion.
	CountPreferencesByCategory(ctx context.Context, categoryID string) (int, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
