package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/repository"
)

// SavedService manages per-user saved copies of articles. A saved copy is
// a fresh row duplicating the source's display fields; once created, its
// lifecycle is independent of the source article.
type SavedService struct {
	articles repository.ArticleRepository
	logger   *slog.Logger
}

// NewSavedService creates a SavedService.
func NewSavedService(articles repository.ArticleRepository, logger *slog.Logger) *SavedService {
	return &SavedService{
		articles: articles,
		logger:   logger,
	}
}

// Save copies the article with the given ID into the user's saved list and
// returns the new copy.
//
// No duplicate check: saving the same source twice produces two
// independent copies. That mirrors the upstream behaviour and leaves
// users free to keep multiple snapshots.
func (s *SavedService) Save(ctx context.Context, userID, articleID string) (*model.Article, error) {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return nil, apperror.ValidationFailed("newsId", "article ID is required")
	}

	source, err := s.articles.GetArticleByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	saved := model.Article{
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

	if err := s.articles.CreateArticle(ctx, &saved); err != nil {
		s.logger.Error("failed to save article",
			slog.String("userId", userID),
			slog.String("articleId", articleID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving article %s for user %s: %w", articleID, userID, err)
	}

	s.logger.Info("article saved",
		slog.String("userId", userID),
		slog.String("articleId", articleID),
		slog.String("copyId", saved.ID),
	)

	return &saved, nil
}

// List returns the user's saved copies, most recently saved first.
func (s *SavedService) List(ctx context.Context, userID string) ([]model.Article, error) {
	articles, err := s.articles.ListSaved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved articles for user %s: %w", userID, err)
	}
	return articles, nil
}

// Remove deletes one of the user's saved copies. NotFound covers every
// miss: unknown ID, a canonical article, or a copy owned by someone else.
func (s *SavedService) Remove(ctx context.Context, userID, articleID string) error {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return apperror.ValidationFailed("newsId", "article ID is required")
	}

	if err := s.articles.DeleteSaved(ctx, userID, articleID); err != nil {
		return err
	}

	s.logger.Info("saved article removed",
		slog.String("userId", userID),
		slog.String("articleId", articleID),
	)
	return nil
}
