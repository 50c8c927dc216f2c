package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

// MaxCategoryNameLength bounds category names.
const MaxCategoryNameLength = 100

// CategoryService manages the category catalog. Names are unique
// (case-sensitive); create and update both enforce it with a Conflict
// rather than succeeding silently.
type CategoryService struct {
	categories  repository.CategoryRepository
	articles    repository.ArticleRepository
	preferences repository.PreferenceRepository
	logger      *slog.Logger
}

// NewCategoryService creates a CategoryService. The article and preference
// repositories are needed to block deletion of categories that articles or
// user preferences still reference.
func NewCategoryService(
	categories repository.CategoryRepository,
	articles repository.ArticleRepository,
	preferences repository.PreferenceRepository,
	logger *slog.Logger,
) *CategoryService {
	return &CategoryService{
		categories:  categories,
		articles:    articles,
		preferences: preferences,
		logger:      logger,
	}
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// GetByID returns one category or NotFound.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category ID is required")
	}
	return s.categories.GetCategoryByID(ctx, id)
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
	}

	// The repository's UNIQUE index also guards this, but checking first
	// yields the same Conflict without burning an insert attempt.
	if _, err := s.categories.GetCategoryByName(ctx, name); err == nil {
		return nil, apperror.Conflict(fmt.Sprintf("category already exists with name %q", name))
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking category name %q: %w", name, err)
	}

	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	}

	s.logger.Info("category created",
		slog.String("id", category.ID),
		slog.String("name", category.Name),
	)

	return category, nil
}

// Update changes a category's name and/or description. An empty name means
// "keep the current one"; a new name must not collide with another
// category's.
func (s *CategoryService) Update(ctx context.Context, id, name, description string) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category ID is required")
	}

	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		if err := validateCategoryName(name); err != nil {
			return nil, err
		}
		if existing, err := s.categories.GetCategoryByName(ctx, name); err == nil && existing.ID != id {
			return nil, apperror.Conflict(fmt.Sprintf("category already exists with name %q", name))
		} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("checking category name %q: %w", name, err)
		}
		category.Name = name
	}
	category.Description = strings.TrimSpace(description)

	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("updating category %s: %w", id, err)
	}

	s.logger.Info("category updated",
		slog.String("id", category.ID),
		slog.String("name", category.Name),
	)

	return category, nil
}

// Delete removes a category. While any article — canonical or saved copy —
// or any user preference still references it, deletion is blocked with
// Conflict; the caller must clear those references first. The checks cover
// every table with a foreign key into categories, so the delete below
// never trips the constraint itself.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "category ID is required")
	}

	if _, err := s.categories.GetCategoryByID(ctx, id); err != nil {
		return err
	}

	count, err := s.articles.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("counting articles in category %s: %w", id, err)
	}
	if count > 0 {
		return apperror.Conflict(
			fmt.Sprintf("category %s is referenced by %d article(s) and cannot be deleted", id, count))
	}

	followers, err := s.preferences.CountPreferencesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("counting preferences for category %s: %w", id, err)
	}
	if followers > 0 {
		return apperror.Conflict(
			fmt.Sprintf("category %s is followed by %d user(s) and cannot be deleted", id, followers))
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.logger.Info("category deleted", slog.String("id", id))
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return apperror.ValidationFailed("name", "category name is required")
	}
	if len(name) > MaxCategoryNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("category name must be %d characters or less", MaxCategoryNameLength))
	}
	return nil
}
