// Package service contains the business logic layer: ingestion, feeds,
// saved articles, the category catalog, and user accounts. Services accept
// repository interfaces, return domain errors from apperror, and know
// nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/newsapi"
	"github.com/sakif/news-aggregator/internal/repository"
)

// Placeholders stored when the provider omits a field.
const (
	placeholderDescription = "No description available"
	placeholderContent     = "No content available"
)

const (
	defaultIngestWorkers = 4
	defaultIngestTimeout = 15 * time.Second
)

// HeadlineProvider is the slice of the newsapi client the pipeline needs.
// Tests substitute a scripted fake.
type HeadlineProvider interface {
	Configured() bool
	TopHeadlines(ctx context.Context, category string) ([]newsapi.Article, error)
}

// IngestResult summarises one ingestion run. FailedCategories holds the
// IDs of categories whose provider call or storage failed; sorted so the
// result is deterministic regardless of worker scheduling.
type IngestResult struct {
	Added            int      `json:"added"`
	FailedCategories []string `json:"failedCategories"`
}

// IngestService pulls articles from the external provider for every
// category and stores the ones not already present.
//
// Per-category fetches run on a bounded worker pool: a slow or failing
// category must not block the others, and the pool size caps concurrent
// calls against the provider's rate limits. There is no retry inside a
// run — dedup makes re-invoking Run the safe retry mechanism.
type IngestService struct {
	provider   HeadlineProvider
	articles   repository.ArticleRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
	workers    int
	timeout    time.Duration
}

// NewIngestService creates an IngestService. workers <= 0 and timeout <= 0
// fall back to the defaults (4 workers, 15s per category).
func NewIngestService(
	provider HeadlineProvider,
	articles repository.ArticleRepository,
	categories repository.CategoryRepository,
	logger *slog.Logger,
	workers int,
	timeout time.Duration,
) *IngestService {
	if workers <= 0 {
		workers = defaultIngestWorkers
	}
	if timeout <= 0 {
		timeout = defaultIngestTimeout
	}
	return &IngestService{
		provider:   provider,
		articles:   articles,
		categories: categories,
		logger:     logger,
		workers:    workers,
		timeout:    timeout,
	}
}

// Run executes one ingestion pass over every category.
//
// Preconditions fail the whole run before any provider call: a missing API
// key (Unavailable) and an empty category catalog (NotFound). After that
// the run is best-effort — each category either contributes its new
// articles to Added or lands in FailedCategories, and cancelling ctx stops
// scheduling further categories while leaving already-stored articles in
// place (a valid partial state, since persistence is per-article).
func (s *IngestService) Run(ctx context.Context) (*IngestResult, error) {
	if !s.provider.Configured() {
		return nil, apperror.Unavailable("news provider API key is not configured")
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories for ingestion: %w", err)
	}
	if len(categories) == 0 {
		return nil, apperror.NotFoundMessage("no categories available to ingest")
	}

	workers := s.workers
	if workers > len(categories) {
		workers = len(categories)
	}

	jobs := make(chan model.Category)

	var (
		mu     sync.Mutex
		result IngestResult
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for category := range jobs {
				added, err := s.ingestCategory(ctx, category)

				mu.Lock()
				result.Added += added
				if err != nil {
					result.FailedCategories = append(result.FailedCategories, category.ID)
				}
				mu.Unlock()

				if err != nil {
					s.logger.Error("category ingestion failed",
						slog.String("categoryId", category.ID),
						slog.String("category", category.Name),
						slog.String("error", err.Error()),
					)
				}
			}
		}()
	}

	// Feed the pool; stop scheduling if the run is cancelled.
feed:
	for _, category := range categories {
		select {
		case jobs <- category:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if result.FailedCategories == nil {
		result.FailedCategories = []string{}
	}
	sort.Strings(result.FailedCategories)

	s.logger.Info("ingestion run completed",
		slog.Int("added", result.Added),
		slog.Int("failedCategories", len(result.FailedCategories)),
	)

	return &result, nil
}

// ingestCategory fetches one page of headlines for the category and stores
// the articles whose dedup key is new. It returns how many articles it
// added even when it also returns an error, so a failure partway through
// still counts the articles that made it in.
func (s *IngestService) ingestCategory(ctx context.Context, category model.Category) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	headlines, err := s.provider.TopHeadlines(cctx, strings.ToLower(category.Name))
	if err != nil {
		return 0, fmt.Errorf("fetching headlines: %w", err)
	}

	added := 0
	for _, headline := range headlines {
		exists, err := s.articles.ExistsCanonical(cctx, headline.Title, headline.URL)
		if err != nil {
			return added, fmt.Errorf("checking dedup key: %w", err)
		}
		if exists {
			continue
		}

		article := canonicalFromHeadline(headline, category.ID)
		if err := s.articles.CreateArticle(cctx, &article); err != nil {
			// A Conflict here means another worker stored the same story
			// between our existence check and the insert — already present,
			// not a failure.
			if errors.Is(err, apperror.ErrConflict) {
				continue
			}
			return added, fmt.Errorf("storing article: %w", err)
		}
		added++
	}

	return added, nil
}

// canonicalFromHeadline maps a provider article onto a canonical Article,
// substituting placeholders for missing description/content.
func canonicalFromHeadline(headline newsapi.Article, categoryID string) model.Article {
	description := headline.Description
	if description == "" {
		description = placeholderDescription
	}
	content := headline.Content
	if content == "" {
		content = placeholderContent
	}

	return model.Article{
		Title:       headline.Title,
		Description: description,
		Content:     content,
		ImageURL:    headline.URLToImage,
		SourceURL:   headline.URL,
		SourceName:  headline.Source.Name,
		PublishedAt: headline.PublishedAt,
		CategoryID:  categoryID,
	}
}
