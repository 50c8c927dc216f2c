package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

var _ repository.PreferenceRepository = (*DB)(nil)

// ListPreferences returns the user's preference rows in creation order.
func (db *DB) ListPreferences(ctx context.Context, userID string) ([]model.Preference, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, category_id, created_at
		 FROM preferences WHERE user_id = ?
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing preferences for user %s: %w", userID, err)
	}
	defer rows.Close()

	preferences := make([]model.Preference, 0)
	for rows.Next() {
		var p model.Preference
		if err := rows.Scan(&p.ID, &p.UserID, &p.CategoryID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning preference row: %w", err)
		}
		preferences = append(preferences, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating preferences: %w", err)
	}

	return preferences, nil
}

// CountPreferencesByCategory counts preference rows referencing the
// category, across all users.
func (db *DB) CountPreferencesByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM preferences WHERE category_id = ?`,
		categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting preferences for category %s: %w", categoryID, err)
	}
	return count, nil
}

// ReplacePreferences swaps the user's entire preference set inside one
// transaction: validate every category ID, delete the old rows, insert the
// new ones. Any failure rolls the whole thing back, so the user never ends
// up with a mixed old/new set.
func (db *DB) ReplacePreferences(ctx context.Context, userID string, categoryIDs []string) ([]model.Preference, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning preference transaction: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	// Validate all IDs up front — an unknown category fails the whole
	// operation rather than silently skipping.
	if len(categoryIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categoryIDs)), ",")
		args := make([]any, 0, len(categoryIDs))
		for _, id := range categoryIDs {
			args = append(args, id)
		}

		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE id IN (`+placeholders+`)`,
			args...,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("sqlite: validating category ids: %w", err)
		}
		if count != len(categoryIDs) {
			return nil, apperror.ValidationFailed("categoryIds",
				"one or more category ids do not exist")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM preferences WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("sqlite: clearing preferences for user %s: %w", userID, err)
	}

	now := time.Now()
	preferences := make([]model.Preference, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		p := model.Preference{
			ID:         xid.New().String(),
			UserID:     userID,
			CategoryID: categoryID,
			CreatedAt:  now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO preferences (id, user_id, category_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			p.ID, p.UserID, p.CategoryID, p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: inserting preference for user %s: %w", userID, err)
		}
		preferences = append(preferences, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing preference transaction: %w", err)
	}

	return preferences, nil
}
