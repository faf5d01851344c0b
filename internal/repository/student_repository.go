package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// StudentRepository manages persistence for student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, email, full_name, roll_no, gender, phone, parent_phone,
        room_number, course, year, password_hash, approved, pending_update, deleted,
        created_at, updated_at`

// List returns the student directory matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	args := []interface{}{}
	conditions := []string{"deleted = false"}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(roll_no) LIKE $%d OR LOWER(room_number) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Year != "" {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Approved != nil {
		conditions = append(conditions, fmt.Sprintf("approved = $%d", len(args)+1))
		args = append(args, *filter.Approved)
	}

	where := strings.Join(conditions, " AND ")

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s ORDER BY full_name ASC LIMIT %d OFFSET %d`,
		studentColumns, where, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID, including soft-deleted rows so callers
// can distinguish deletion from absence.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByEmail fetches a live student by login email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE LOWER(email) = LOWER($1) AND deleted = false", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new, unapproved student account.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, email, full_name, roll_no, gender, phone, parent_phone,
        room_number, course, year, password_hash, approved, created_at, updated_at)
        VALUES (:id, :email, :full_name, :roll_no, :gender, :phone, :parent_phone,
        :room_number, :course, :year, :password_hash, :approved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update writes the editable profile fields directly. Staff-initiated edits
// bypass the pending-update staging.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, phone = :phone,
        parent_phone = :parent_phone, room_number = :room_number, course = :course,
        year = :year, updated_at = :updated_at
        WHERE id = :id AND deleted = false`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetApproved flips the approval flag on a pending account.
func (r *StudentRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE students SET approved = $2, updated_at = $3 WHERE id = $1 AND deleted = false`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student approval: %w", err)
	}
	return nil
}

// SoftDelete hides the student from every listing while retaining history.
func (r *StudentRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE students SET deleted = true, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete student: %w", err)
	}
	return nil
}

// StagePendingUpdate records a student-proposed profile change for staff review.
func (r *StudentRepository) StagePendingUpdate(ctx context.Context, id string, patch models.StudentPatch) error {
	const query = `UPDATE students SET pending_update = $2, updated_at = $3 WHERE id = $1 AND deleted = false`
	if _, err := r.db.ExecContext(ctx, query, id, patch, time.Now().UTC()); err != nil {
		return fmt.Errorf("stage pending update: %w", err)
	}
	return nil
}

// ApplyPendingUpdate merges the staged patch into the profile and clears it.
func (r *StudentRepository) ApplyPendingUpdate(ctx context.Context, id string) error {
	student, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if student.PendingUpdate == nil {
		return nil
	}
	patch := student.PendingUpdate
	if patch.FullName != nil {
		student.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		student.Phone = *patch.Phone
	}
	if patch.ParentPhone != nil {
		student.ParentPhone = *patch.ParentPhone
	}
	if patch.RoomNumber != nil {
		student.RoomNumber = *patch.RoomNumber
	}
	if patch.Course != nil {
		student.Course = *patch.Course
	}
	if patch.Year != nil {
		student.Year = *patch.Year
	}
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, phone = :phone,
        parent_phone = :parent_phone, room_number = :room_number, course = :course,
        year = :year, pending_update = NULL, updated_at = :updated_at
        WHERE id = :id AND deleted = false`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("apply pending update: %w", err)
	}
	return nil
}

// ClearPendingUpdate discards a staged change without applying it.
func (r *StudentRepository) ClearPendingUpdate(ctx context.Context, id string) error {
	const query = `UPDATE students SET pending_update = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear pending update: %w", err)
	}
	return nil
}

// ListPendingAccounts returns unapproved, live student accounts, oldest first.
func (r *StudentRepository) ListPendingAccounts(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE approved = false AND deleted = false ORDER BY created_at ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list pending accounts: %w", err)
	}
	return students, nil
}

// ListPendingUpdates returns live students with a staged profile change.
func (r *StudentRepository) ListPendingUpdates(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students
        WHERE pending_update IS NOT NULL AND deleted = false ORDER BY updated_at ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list pending updates: %w", err)
	}
	return students, nil
}
