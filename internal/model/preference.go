package model

import "time"

// Preference records that a user follows a category. The (UserID,
// CategoryID) pair is unique — following the same category twice collapses
// to a single row.
type Preference struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
}
