package dto

// CreateComplaintRequest captures POST /complaints payload.
type CreateComplaintRequest struct {
	Category    string `json:"category"`
	Severity    string `json:"severity" validate:"omitempty,oneof=Low Medium Critical"`
	Description string `json:"description" validate:"required"`
}

// ResolveComplaintRequest captures POST /complaints/:id/resolve payload.
type ResolveComplaintRequest struct {
	Note string `json:"note"`
}
