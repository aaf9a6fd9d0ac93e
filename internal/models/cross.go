package models

import "time"

// Cross records one breeding event: two parent strains and the offspring
// strain they produced, scoped to a single family tree. The position fields
// are layout coordinates for the visualization canvas.
type Cross struct {
	ID           string     `json:"id"`
	Parent1ID    string     `json:"parent1_id"`
	Parent2ID    string     `json:"parent2_id"`
	OffspringID  string     `json:"offspring_id"`
	Generation   int        `json:"generation"` // F1, F2, ...
	CrossDate    *time.Time `json:"cross_date"`
	Notes        string     `json:"notes"`
	FamilyTreeID string     `json:"family_tree_id"`
	PositionX    float64    `json:"position_x"`
	PositionY    float64    `json:"position_y"`
	CreatedAt    time.Time  `json:"created_at"`

	// Strain names resolved by joins on read paths.
	Parent1Name   string `json:"parent1_name,omitempty"`
	Parent2Name   string `json:"parent2_name,omitempty"`
	OffspringName string `json:"offspring_name,omitempty"`
}
