package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

// FeedLimit caps every feed and search response.
const FeedLimit = 20

// FeedService derives the read views over canonical articles: the
// personalized feed, the per-category feed, and free-text search. Saved
// copies never appear in any of these.
type FeedService struct {
	articles    repository.ArticleRepository
	preferences repository.PreferenceRepository
	logger      *slog.Logger
}

// NewFeedService creates a FeedService.
func NewFeedService(
	articles repository.ArticleRepository,
	preferences repository.PreferenceRepository,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		articles:    articles,
		preferences: preferences,
		logger:      logger,
	}
}

// Personalized returns the newest canonical articles in the categories the
// user follows, capped at FeedLimit.
//
// The second return distinguishes "no preferences configured" (false, with
// an empty slice) from "preferences set but nothing matched" (true, with
// an empty slice). Callers must not collapse the two — the API renders
// them differently.
func (s *FeedService) Personalized(ctx context.Context, userID string) ([]model.Article, bool, error) {
	preferences, err := s.preferences.ListPreferences(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("loading preferences for user %s: %w", userID, err)
	}

	if len(preferences) == 0 {
		return []model.Article{}, false, nil
	}

	categoryIDs := lo.Map(preferences, func(p model.Preference, _ int) string {
		return p.CategoryID
	})

	articles, err := s.articles.ListByCategories(ctx, categoryIDs,
		repository.FeedOptions{Limit: FeedLimit})
	if err != nil {
		return nil, false, fmt.Errorf("loading personalized feed for user %s: %w", userID, err)
	}

	return articles, true, nil
}

// ByCategory returns the newest canonical articles in one category. No
// authentication or category existence check — an unknown ID simply yields
// an empty feed.
func (s *FeedService) ByCategory(ctx context.Context, categoryID string) ([]model.Article, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, apperror.ValidationFailed("categoryId", "category ID is required")
	}

	articles, err := s.articles.ListByCategories(ctx, []string{categoryID},
		repository.FeedOptions{Limit: FeedLimit})
	if err != nil {
		return nil, fmt.Errorf("loading category feed %s: %w", categoryID, err)
	}

	return articles, nil
}

// Search returns canonical articles where the query appears as a
// case-insensitive substring of the title, description, or content.
func (s *FeedService) Search(ctx context.Context, query string) ([]model.Article, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperror.ValidationFailed("query", "query required")
	}

	articles, err := s.articles.SearchArticles(ctx, query,
		repository.FeedOptions{Limit: FeedLimit})
	if err != nil {
		return nil, fmt.Errorf("searching articles for %q: %w", query, err)
	}

	return articles, nil
}
