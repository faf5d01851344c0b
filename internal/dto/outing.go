package dto

import "time"

// CreateOutingRequest captures POST /outings payload.
type CreateOutingRequest struct {
	Purpose    string     `json:"purpose" validate:"required"`
	ReturnTime *time.Time `json:"return_time,omitempty"`
}
