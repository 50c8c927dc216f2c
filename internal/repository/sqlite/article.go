package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

// Compile-time check that *DB satisfies the interface.
var _ repository.ArticleRepository = (*DB)(nil)

const articleColumns = `id, title, description, content, image_url, source_url,
	source_name, published_at, category_id, owner_user_id, is_saved,
	created_at, updated_at`

// CreateArticle inserts an article and fills in its ID and timestamps.
//
// For canonical articles the partial unique index on (title, source_url)
// is the last line of defence against duplicate ingestion: two workers
// racing on the same story both pass the ExistsCanonical check, but only
// one insert succeeds — the loser gets a Conflict error it can treat as
// "already stored".
func (db *DB) CreateArticle(ctx context.Context, article *model.Article) error {
	article.ID = xid.New().String()

	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now

	// Empty owner means canonical — stored as NULL so the partial unique
	// index applies.
	var owner any
	if article.OwnerUserID != "" {
		owner = article.OwnerUserID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO articles (id, title, description, content, image_url,
		 source_url, source_name, published_at, category_id, owner_user_id,
		 is_saved, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID,
		article.Title,
		article.Description,
		article.Content,
		article.ImageURL,
		article.SourceURL,
		article.SourceName,
		article.PublishedAt,
		article.CategoryID,
		owner,
		article.IsSaved,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(
				fmt.Sprintf("article already stored with title %q and source %q",
					article.Title, article.SourceURL))
		}
		return fmt.Errorf("sqlite: creating article: %w", err)
	}

	return nil
}

// GetArticleByID retrieves a single article, canonical or saved.
func (db *DB) GetArticleByID(ctx context.Context, id string) (*model.Article, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)

	article, err := scanArticle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("article", id)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", id, err)
	}

	return article, nil
}

// ExistsCanonical checks the dedup key with raw string equality — no case
// or whitespace folding, matching how the key is indexed.
func (db *DB) ExistsCanonical(ctx context.Context, title, sourceURL string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles
		 WHERE owner_user_id IS NULL AND title = ? AND source_url = ?`,
		title, sourceURL,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking article dedup key: %w", err)
	}
	return count > 0, nil
}

// ListByCategories returns canonical articles in the given categories,
// newest publishedAt first. An empty category set returns an empty slice
// without touching the database.
func (db *DB) ListByCategories(ctx context.Context, categoryIDs []string, opts repository.FeedOptions) ([]model.Article, error) {
	if len(categoryIDs) == 0 {
		return []model.Article{}, nil
	}

	limit := feedLimit(opts)

	// Expand one placeholder per category ID for the IN clause.
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categoryIDs)), ",")
	args := make([]any, 0, len(categoryIDs)+1)
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE owner_user_id IS NULL AND category_id IN (`+placeholders+`)
		 ORDER BY published_at DESC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles by categories: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows, limit)
}

// SearchArticles matches the query as a case-insensitive substring of
// title, description, or content, over canonical articles only.
func (db *DB) SearchArticles(ctx context.Context, query string, opts repository.FeedOptions) ([]model.Article, error) {
	limit := feedLimit(opts)
	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE owner_user_id IS NULL
		   AND (lower(title) LIKE ? OR lower(description) LIKE ? OR lower(content) LIKE ?)
		 ORDER BY published_at DESC
		 LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows, limit)
}

// ListSaved returns the user's saved copies, most recently saved first.
func (db *DB) ListSaved(ctx context.Context, userID string) ([]model.Article, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE owner_user_id = ? AND is_saved = 1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing saved articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows, 0)
}

// DeleteSaved removes a saved copy owned by the user. The WHERE clause
// carries the ownership and is_saved conditions, so an attempt to delete a
// canonical article or someone else's copy affects zero rows and reports
// NotFound.
func (db *DB) DeleteSaved(ctx context.Context, userID, articleID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM articles
		 WHERE id = ? AND owner_user_id = ? AND is_saved = 1`,
		articleID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting saved article %s: %w", articleID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("saved article", articleID)
	}

	return nil
}

// CountByCategory counts every article still referencing the category,
// saved copies included — a saved copy keeps its category reference alive.
func (db *DB) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE category_id = ?`,
		categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting articles in category %s: %w", categoryID, err)
	}
	return count, nil
}

// feedLimit applies the default/maximum feed page size.
func feedLimit(opts repository.FeedOptions) int {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var (
		article model.Article
		owner   sql.NullString
	)
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Description,
		&article.Content,
		&article.ImageURL,
		&article.SourceURL,
		&article.SourceName,
		&article.PublishedAt,
		&article.CategoryID,
		&owner,
		&article.IsSaved,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	article.OwnerUserID = owner.String
	return &article, nil
}

func collectArticles(rows *sql.Rows, capacity int) ([]model.Article, error) {
	articles := make([]model.Article, 0, capacity)

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating articles: %w", err)
	}

	return articles, nil
}
