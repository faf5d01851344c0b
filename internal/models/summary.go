package models

import "time"

// CategorySummary is a cached narrative synopsis of the open complaints
// sharing a category, optionally partitioned by hostel gender context. At
// most one live row exists per (category, gender) key; regeneration replaces
// the partition wholesale.
type CategorySummary struct {
	ID          string    `db:"id" json:"id"`
	Category    string    `db:"category" json:"category"`
	Gender      *string   `db:"gender" json:"gender,omitempty"`
	Summary     string    `db:"summary" json:"summary"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
}
