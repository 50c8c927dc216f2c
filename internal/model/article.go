// Package model defines the domain types shared by every layer.
package model

import "time"

// Article represents a single news story.
//
// Two kinds of article share this shape:
//
//   - Canonical articles: produced by ingestion. OwnerUserID is empty and
//     IsSaved is false. These are the rows that feeds and search return.
//   - Saved copies: produced when a user saves an article. OwnerUserID holds
//     the owning user's ID and IsSaved is true. A saved copy duplicates every
//     display field of its source at save time — it is a full value copy,
//     never a reference, so deleting the canonical row leaves it untouched.
//
// An empty OwnerUserID means "no owner"; the sqlite layer maps it to NULL
// on write and back on read.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	SourceName  string    `json:"sourceName,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	CategoryID  string    `json:"categoryId"`
	OwnerUserID string    `json:"ownerUserId,omitempty"` // empty for canonical articles
	IsSaved     bool      `json:"isSaved"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsCanonical reports whether the article is an ingested article rather
// than a user's saved copy.
func (a *Article) IsCanonical() bool {
	return a.OwnerUserID == "" && !a.IsSaved
}
