package models

import "time"

// ComplaintStatus captures the complaint lifecycle states.
type ComplaintStatus string

const (
	ComplaintStatusSubmitted    ComplaintStatus = "submitted"
	ComplaintStatusAcknowledged ComplaintStatus = "acknowledged"
	ComplaintStatusResolved     ComplaintStatus = "resolved"
	ComplaintStatusRejected     ComplaintStatus = "rejected"
)

// ComplaintSeverity grades how urgent a complaint is.
type ComplaintSeverity string

const (
	SeverityLow      ComplaintSeverity = "Low"
	SeverityMedium   ComplaintSeverity = "Medium"
	SeverityCritical ComplaintSeverity = "Critical"
)

// CategoryOther is the bucket for complaints filed without a category.
const CategoryOther = "Other"

// KnownCategories lists the categories offered by the intake form. The
// column itself is free text, so reads must tolerate values outside this set.
var KnownCategories = []string{"Hygiene", "Food", "Maintenance", "Discipline", CategoryOther}

// DefaultClosingNote is applied when a batch resolution omits a note.
const DefaultClosingNote = "Resolved by staff."

// Complaint is a student-filed issue report with a staff-managed lifecycle.
type Complaint struct {
	ID             string            `db:"id" json:"id"`
	StudentID      string            `db:"student_id" json:"student_id"`
	Category       string            `db:"category" json:"category"`
	Severity       ComplaintSeverity `db:"severity" json:"severity"`
	Description    string            `db:"description" json:"description"`
	Status         ComplaintStatus   `db:"status" json:"status"`
	SubmittedAt    time.Time         `db:"submitted_at" json:"submitted_at"`
	AcknowledgedAt *time.Time        `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string           `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *string           `db:"resolved_by" json:"resolved_by,omitempty"`
	ClosingNote    *string           `db:"closing_note" json:"closing_note,omitempty"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// ComplaintDetail joins the owning student and acting staff onto a complaint.
type ComplaintDetail struct {
	Complaint
	StudentName       string  `db:"student_name" json:"student_name"`
	StudentRollNo     string  `db:"student_roll_no" json:"student_roll_no"`
	StudentGender     string  `db:"student_gender" json:"student_gender"`
	StudentRoomNumber string  `db:"student_room_number" json:"student_room_number"`
	AckStaffName      *string `db:"ack_staff_name" json:"ack_staff_name,omitempty"`
	ResolvedStaffName *string `db:"resolved_staff_name" json:"resolved_staff_name,omitempty"`
}

// ComplaintFilter captures the list view predicates.
type ComplaintFilter struct {
	StudentID string
	Search    string
	Status    ComplaintStatus
	Category  string
	Severity  ComplaintSeverity
	Gender    string
	Window    TimeWindow
	Page      int
	PageSize  int
}

// ComplaintStats aggregates counts for the staff chart views.
type ComplaintStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
	BySeverity map[string]int `json:"by_severity"`
}
