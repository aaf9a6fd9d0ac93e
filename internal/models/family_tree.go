package models

import "time"

// FamilyTree owns a collection of crosses. Deleting a tree deletes them.
// share_token is generated once at creation and never rotated.
type FamilyTree struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	IsPublic    bool      `json:"is_public"`
	ShareToken  string    `json:"share_token"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	OwnerUsername string `json:"owner_username,omitempty"`
	CrossesCount  int    `json:"crosses_count"`
}
