package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Student represents a resident registered in the hostel.
type Student struct {
	ID            string        `db:"id" json:"id"`
	Email         string        `db:"email" json:"email"`
	FullName      string        `db:"full_name" json:"full_name"`
	RollNo        string        `db:"roll_no" json:"roll_no"`
	Gender        string        `db:"gender" json:"gender"`
	Phone         string        `db:"phone" json:"phone"`
	ParentPhone   string        `db:"parent_phone" json:"parent_phone"`
	RoomNumber    string        `db:"room_number" json:"room_number"`
	Course        string        `db:"course" json:"course"`
	Year          string        `db:"year" json:"year"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	Approved      bool          `db:"approved" json:"approved"`
	PendingUpdate *StudentPatch `db:"pending_update" json:"pending_update,omitempty"`
	Deleted       bool          `db:"deleted" json:"-"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentPatch is a staged profile change awaiting staff approval. Only the
// fields a student may edit are stageable; nil fields are left untouched
// when the patch is applied.
type StudentPatch struct {
	FullName    *string `json:"full_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	ParentPhone *string `json:"parent_phone,omitempty"`
	RoomNumber  *string `json:"room_number,omitempty"`
	Course      *string `json:"course,omitempty"`
	Year        *string `json:"year,omitempty"`
}

// Value marshals the patch to JSON for persistence.
func (p StudentPatch) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal student patch: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the patch.
func (p *StudentPatch) Scan(value interface{}) error {
	if value == nil {
		*p = StudentPatch{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StudentPatch", value)
	}
	if len(data) == 0 {
		*p = StudentPatch{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal student patch: %w", err)
	}
	return nil
}

// StudentFilter encapsulates directory search parameters.
type StudentFilter struct {
	Search   string
	Gender   string
	Course   string
	Year     string
	Approved *bool
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NormalizePage clamps paging inputs to the served range. Sizes outside
// 1..100 fall back to 20.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
