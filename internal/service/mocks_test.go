package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/newsapi"
	"github.com/sakif/news-aggregator/internal/repository"
)

// In-memory mock repositories shared by the service tests. They implement
// the same interfaces as the sqlite package, including the behaviours the
// services rely on: the canonical dedup key, NotFound on misses, and
// atomic preference replacement.

type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*model.Article
	nextID   int
	// createErr, when set, fails every CreateArticle call.
	createErr error
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[string]*model.Article)}
}

func (m *mockArticleRepo) CreateArticle(_ context.Context, article *model.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if article.OwnerUserID == "" {
		for _, a := range m.articles {
			if a.OwnerUserID == "" && a.Title == article.Title && a.SourceURL == article.SourceURL {
				return apperror.Conflict("article already stored")
			}
		}
	}
	m.nextID++
	article.ID = fmt.Sprintf("article-%d", m.nextID)
	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	stored := *article
	m.articles[article.ID] = &stored
	return nil
}

func (m *mockArticleRepo) GetArticleByID(_ context.Context, id string) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	article, ok := m.articles[id]
	if !ok {
		return nil, apperror.NotFound("article", id)
	}
	result := *article
	return &result, nil
}

func (m *mockArticleRepo) ExistsCanonical(_ context.Context, title, sourceURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.OwnerUserID == "" && a.Title == title && a.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockArticleRepo) ListByCategories(_ context.Context, categoryIDs []string, opts repository.FeedOptions) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}

	result := make([]model.Article, 0)
	for _, a := range m.articles {
		if a.OwnerUserID == "" && wanted[a.CategoryID] {
			result = append(result, *a)
		}
	}
	sortByPublishedDesc(result)
	return capArticles(result, opts.Limit), nil
}

func (m *mockArticleRepo) SearchArticles(_ context.Context, query string, opts repository.FeedOptions) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	result := make([]model.Article, 0)
	for _, a := range m.articles {
		if a.OwnerUserID != "" {
			continue
		}
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Description), q) ||
			strings.Contains(strings.ToLower(a.Content), q) {
			result = append(result, *a)
		}
	}
	sortByPublishedDesc(result)
	return capArticles(result, opts.Limit), nil
}

func (m *mockArticleRepo) ListSaved(_ context.Context, userID string) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Article, 0)
	for _, a := range m.articles {
		if a.OwnerUserID == userID && a.IsSaved {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockArticleRepo) DeleteSaved(_ context.Context, userID, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[articleID]
	if !ok || a.OwnerUserID != userID || !a.IsSaved {
		return apperror.NotFound("saved article", articleID)
	}
	delete(m.articles, articleID)
	return nil
}

func (m *mockArticleRepo) CountByCategory(_ context.Context, categoryID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.articles {
		if a.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// canonicalCount counts stored canonical articles — the number ingestion
// idempotence cares about.
func (m *mockArticleRepo) canonicalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.articles {
		if a.OwnerUserID == "" {
			count++
		}
	}
	return count
}

func sortByPublishedDesc(articles []model.Article) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

func capArticles(articles []model.Article, limit int) []model.Article {
	if limit <= 0 {
		limit = 20
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}

type mockCategoryRepo struct {
	categories map[string]*model.Category
	nextID     int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*model.Category)}
}

// add seeds a category directly, bypassing validation.
func (m *mockCategoryRepo) add(name string) *model.Category {
	m.nextID++
	c := &model.Category{
		ID:        fmt.Sprintf("category-%d", m.nextID),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.categories[c.ID] = c
	return c
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, category *model.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return apperror.Conflict(fmt.Sprintf("category already exists with name %q", category.Name))
		}
	}
	m.nextID++
	category.ID = fmt.Sprintf("category-%d", m.nextID)
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	result := *category
	return &result, nil
}

func (m *mockCategoryRepo) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			result := *c
			return &result, nil
		}
	}
	return nil, apperror.NotFoundMessage(fmt.Sprintf("category not found with name %q", name))
}

func (m *mockCategoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	result := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCategoryRepo) UpdateCategory(_ context.Context, category *model.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return apperror.NotFound("category", category.ID)
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) DeleteCategory(_ context.Context, id string) error {
	if _, ok := m.categories[id]; !ok {
		return apperror.NotFound("category", id)
	}
	delete(m.categories, id)
	return nil
}

type mockPreferenceRepo struct {
	categories  *mockCategoryRepo // for ID validation on replace
	preferences map[string][]model.Preference
	nextID      int
}

func newMockPreferenceRepo(categories *mockCategoryRepo) *mockPreferenceRepo {
	return &mockPreferenceRepo{
		categories:  categories,
		preferences: make(map[string][]model.Preference),
	}
}

func (m *mockPreferenceRepo) ListPreferences(_ context.Context, userID string) ([]model.Preference, error) {
	result := make([]model.Preference, len(m.preferences[userID]))
	copy(result, m.preferences[userID])
	return result, nil
}

func (m *mockPreferenceRepo) CountPreferencesByCategory(_ context.Context, categoryID string) (int, error) {
	count := 0
	for _, prefs := range m.preferences {
		for _, p := range prefs {
			if p.CategoryID == categoryID {
				count++
			}
		}
	}
	return count, nil
}

func (m *mockPreferenceRepo) ReplacePreferences(_ context.Context, userID string, categoryIDs []string) ([]model.Preference, error) {
	// Validate before touching the stored set, mirroring the transaction.
	for _, id := range categoryIDs {
		if _, ok := m.categories.categories[id]; !ok {
			return nil, apperror.ValidationFailed("categoryIds", "one or more category ids do not exist")
		}
	}

	replaced := make([]model.Preference, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		m.nextID++
		replaced = append(replaced, model.Preference{
			ID:         fmt.Sprintf("preference-%d", m.nextID),
			UserID:     userID,
			CategoryID: categoryID,
			CreatedAt:  time.Now(),
		})
	}
	m.preferences[userID] = replaced

	result := make([]model.Preference, len(replaced))
	copy(result, replaced)
	return result, nil
}

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
	// getByEmailErr, when set, fails every GetUserByEmail call.
	getByEmailErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict(fmt.Sprintf("user already exists with email %s", user.Email))
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFoundMessage(fmt.Sprintf("user not found with email %s", email))
}

// fakeProvider scripts per-category responses for ingestion tests. The
// mutex matters: ingestion workers call TopHeadlines concurrently.
type fakeProvider struct {
	mu         sync.Mutex
	configured bool
	// headlines maps the lowercased category name to its response.
	headlines map[string][]newsapi.Article
	// failures maps the lowercased category name to an error.
	failures map[string]error
	// calls records the categories requested, for asserting fan-out.
	calls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		configured: true,
		headlines:  make(map[string][]newsapi.Article),
		failures:   make(map[string]error),
	}
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) TopHeadlines(_ context.Context, category string) ([]newsapi.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, category)
	if err, ok := f.failures[category]; ok {
		return nil, err
	}
	return f.headlines[category], nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func headline(title, url string, publishedAt time.Time) newsapi.Article {
	a := newsapi.Article{
		Title:       title,
		Description: "description of " + title,
		Content:     "content of " + title,
		URL:         url,
		PublishedAt: publishedAt,
	}
	a.Source.Name = "Test Source"
	return a
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mustCreateArticle seeds a canonical article through the mock repo.
func mustCreateArticle(t *testing.T, repo *mockArticleRepo, title, categoryID string, publishedAt time.Time) *model.Article {
	t.Helper()
	article := &model.Article{
		Title:       title,
		Description: "description of " + title,
		Content:     "content of " + title,
		SourceURL:   "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		PublishedAt: publishedAt,
		CategoryID:  categoryID,
	}
	if err := repo.CreateArticle(context.Background(), article); err != nil {
		t.Fatalf("failed to seed article: %v", err)
	}
	return article
}
