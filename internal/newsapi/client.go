// Package newsapi is the client for the external news provider's
// top-headlines endpoint. It knows nothing about storage or categories as
// our domain sees them — it takes a category name, returns provider
// articles, and reports failures as plain errors for the ingestion
// pipeline to handle per category.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the provider's top-headlines endpoint.
const DefaultBaseURL = "https://newsapi.org/v2/top-headlines"

// Config holds the provider connection settings. An empty APIKey means the
// provider is unconfigured — ingestion refuses to start in that case.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string // e.g. "en"
	PageSize int    // articles requested per category
}

// DefaultConfig returns the settings the server starts with when no
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Language: "en",
		PageSize: 10,
	}
}

// Article is the provider's wire shape for one story. Description and
// Content are frequently empty — the ingestion pipeline substitutes
// placeholders before storage.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// response is the provider's envelope. On failure status is "error" and
// code/message describe the problem.
type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// Client fetches headlines from the provider. The zero value is not
// usable; construct with New.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a provider client. The http.Client timeout is a backstop —
// each ingestion task also carries its own context deadline.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 20 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// TopHeadlines fetches one page of articles for the given provider
// category (the lowercased category name). Any transport error, non-2xx
// response, or provider-level error status is returned as an error — the
// caller decides whether that fails the run or just the category.
func (c *Client) TopHeadlines(ctx context.Context, category string) ([]Article, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("newsapi: parsing base URL: %w", err)
	}

	q := u.Query()
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("category", category)
	q.Set("language", c.cfg.Language)
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: fetching headlines for %q: %w", category, err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("newsapi: decoding response for %q: %w", category, err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("newsapi: provider error for %q: status %d, code %q: %s",
			category, resp.StatusCode, body.Code, body.Message)
	}

	return body.Articles, nil
}
