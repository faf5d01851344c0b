package dto

import "github.com/hosteldesk/hosteldesk-api/internal/models"

// UpdateProfileRequest captures PATCH /students/:id payload. Student-initiated
// edits are staged for staff approval; staff edits apply immediately.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	ParentPhone *string `json:"parent_phone,omitempty"`
	RoomNumber  *string `json:"room_number,omitempty"`
	Course      *string `json:"course,omitempty"`
	Year        *string `json:"year,omitempty"`
}

// Patch converts the request to a stageable models patch.
func (r UpdateProfileRequest) Patch() models.StudentPatch {
	return models.StudentPatch{
		FullName:    r.FullName,
		Phone:       r.Phone,
		ParentPhone: r.ParentPhone,
		RoomNumber:  r.RoomNumber,
		Course:      r.Course,
		Year:        r.Year,
	}
}
