package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

var _ repository.CategoryRepository = (*DB)(nil)

// CreateCategory inserts a category, generating its ID and timestamps. The
// UNIQUE index on name turns duplicate names into Conflict errors.
func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()

	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("category already exists with name %q", category.Name))
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}

	return nil
}

func (db *DB) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}

	return &category, nil
}

// GetCategoryByName looks a category up by its exact (case-sensitive) name.
func (db *DB) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories WHERE name = ?`,
		name,
	).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("category not found with name %q", name))
		}
		return nil, fmt.Errorf("sqlite: getting category by name %q: %w", name, err)
	}

	return &category, nil
}

func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

func (db *DB) UpdateCategory(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		category.Name,
		category.Description,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("category already exists with name %q", category.Name))
		}
		return fmt.Errorf("sqlite: updating category %s: %w", category.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", category.ID)
	}

	return nil
}

func (db *DB) DeleteCategory(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("category", id)
	}

	return nil
}
