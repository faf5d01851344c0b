package dto

import "github.com/hosteldesk/hosteldesk-api/internal/models"

// PendingAccount is one unapproved signup awaiting staff review. Exactly one
// of Student/Staff is set, matching Role.
type PendingAccount struct {
	Role    models.Role     `json:"role"`
	Student *models.Student `json:"student,omitempty"`
	Staff   *models.Staff   `json:"staff,omitempty"`
}

// ApprovalQueue groups the three review streams shown on the approvals tab.
type ApprovalQueue struct {
	Accounts       []PendingAccount `json:"accounts"`
	ProfileUpdates []models.Student `json:"profile_updates"`
}

// BatchResolveRequest captures POST /complaints/batch-resolve payload.
type BatchResolveRequest struct {
	IDs  []string `json:"ids" validate:"required,min=1"`
	Note string   `json:"note"`
}

// BatchResolveResult reports per-complaint outcomes of a batch resolution.
// Failed entries leave the other resolutions applied.
type BatchResolveResult struct {
	Resolved []string          `json:"resolved"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// OutingDecisionRequest captures POST /outings/:id/decision payload.
type OutingDecisionRequest struct {
	Decision models.OutingStatus `json:"decision" validate:"required"`
	Reason   string              `json:"reason"`
}
