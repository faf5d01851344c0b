package dto

import "time"

// InsightRequest captures POST /insights payload.
type InsightRequest struct {
	Gender       string `json:"gender,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

// CategoryInsight pairs a cached or freshly generated narrative with the
// live membership of its category. The text may predate the membership; the
// count and id list always reflect the open complaints at request time.
type CategoryInsight struct {
	Category     string    `json:"category"`
	Summary      string    `json:"summary"`
	OpenCount    int       `json:"open_count"`
	ComplaintIDs []string  `json:"complaint_ids"`
	GeneratedAt  time.Time `json:"generated_at"`
	FromCache    bool      `json:"from_cache"`
	Degraded     bool      `json:"degraded,omitempty"`
}

// InsightResponse aggregates per-category insights, ordered by open count
// descending.
type InsightResponse struct {
	Insights    []CategoryInsight `json:"insights"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// RewriteRequest captures POST /assist/rewrite payload.
type RewriteRequest struct {
	Text string `json:"text" validate:"required"`
}

// RewriteResponse returns the rewritten draft.
type RewriteResponse struct {
	Suggestion string `json:"suggestion"`
}
