package dto

// StudentSignupRequest captures POST /auth/signup/student payload. New
// accounts start unapproved and cannot log in until staff approve them.
type StudentSignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	RollNo      string `json:"roll_no" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	Phone       string `json:"phone"`
	ParentPhone string `json:"parent_phone"`
	RoomNumber  string `json:"room_number"`
	Course      string `json:"course"`
	Year        string `json:"year"`
}

// StaffSignupRequest captures POST /auth/signup/staff payload.
type StaffSignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	Designation string `json:"designation" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	Phone       string `json:"phone"`
}
