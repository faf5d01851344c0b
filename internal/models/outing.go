package models

import "time"

// OutingStatus captures the gate-pass lifecycle states.
type OutingStatus string

const (
	OutingStatusSubmitted OutingStatus = "submitted"
	OutingStatusApproved  OutingStatus = "approved"
	OutingStatusRejected  OutingStatus = "rejected"
	OutingStatusCompleted OutingStatus = "completed"
)

// Terminal reports whether no further transition is accepted from s.
func (s OutingStatus) Terminal() bool {
	return s == OutingStatusRejected || s == OutingStatusCompleted
}

// OutingRequest is a student-filed gate-pass request.
type OutingRequest struct {
	ID              string       `db:"id" json:"id"`
	StudentID       string       `db:"student_id" json:"student_id"`
	Purpose         string       `db:"purpose" json:"purpose"`
	ReturnTime      *time.Time   `db:"return_time" json:"return_time,omitempty"`
	Status          OutingStatus `db:"status" json:"status"`
	SubmittedAt     time.Time    `db:"submitted_at" json:"submitted_at"`
	DecidedAt       *time.Time   `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy       *string      `db:"decided_by" json:"decided_by,omitempty"`
	ReturnedAt      *time.Time   `db:"returned_at" json:"returned_at,omitempty"`
	RejectionReason *string      `db:"rejection_reason" json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// OutingDetail joins the owning student and deciding staff onto a request.
type OutingDetail struct {
	OutingRequest
	StudentName       string  `db:"student_name" json:"student_name"`
	StudentRollNo     string  `db:"student_roll_no" json:"student_roll_no"`
	StudentGender     string  `db:"student_gender" json:"student_gender"`
	StudentRoomNumber string  `db:"student_room_number" json:"student_room_number"`
	DecidedStaffName  *string `db:"decided_staff_name" json:"decided_staff_name,omitempty"`
}

// OutingFilter captures the list view predicates.
type OutingFilter struct {
	StudentID string
	Search    string
	Status    OutingStatus
	Gender    string
	Window    TimeWindow
	Page      int
	PageSize  int
}

// OutingStats aggregates request counts for the staff chart views.
type OutingStats struct {
	Total    int              `json:"total"`
	ByStatus map[string]int   `json:"by_status"`
	PerDay   []OutingDayCount `json:"per_day"`
}

// OutingDayCount is one point on the requests-over-time chart.
type OutingDayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ActiveOuting is the slim projection backing the "currently out" board.
type ActiveOuting struct {
	OutingID          string     `db:"outing_id" json:"outing_id"`
	StudentID         string     `db:"student_id" json:"student_id"`
	StudentName       string     `db:"student_name" json:"student_name"`
	StudentRollNo     string     `db:"student_roll_no" json:"student_roll_no"`
	StudentRoomNumber string     `db:"student_room_number" json:"student_room_number"`
	ReturnTime        *time.Time `db:"return_time" json:"return_time,omitempty"`
}
