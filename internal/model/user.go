package model

import "time"

// User represents a registered account.
//
// PasswordHash stores the bcrypt hash of the user's password — never the
// plaintext. The `json:"-"` tag keeps it out of every JSON response, so a
// handler cannot leak it by accident.
//
// IsAdmin gates the administrative operations (category CRUD and triggering
// an ingestion run).
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
