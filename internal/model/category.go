package model

import "time"

// Category is a named topic that articles belong to and users can follow.
// Name is unique across all categories (case-sensitive) — the sqlite layer
// enforces it with a UNIQUE index and the service surfaces violations as
// Conflict errors.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
