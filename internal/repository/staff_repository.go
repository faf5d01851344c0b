package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// StaffRepository manages persistence for staff accounts.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, email, full_name, designation, gender, phone,
        password_hash, approved, created_at, updated_at`

// FindByID fetches a staff member by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE id = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByEmail fetches a staff member by login email.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE LOWER(email) = LOWER($1)", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, err
	}
	return &staff, nil
}

// Create inserts a new, unapproved staff account.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	const query = `INSERT INTO staff (id, email, full_name, designation, gender, phone,
        password_hash, approved, created_at, updated_at)
        VALUES (:id, :email, :full_name, :designation, :gender, :phone,
        :password_hash, :approved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// SetApproved flips the approval flag on a pending account.
func (r *StaffRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE staff SET approved = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("set staff approval: %w", err)
	}
	return nil
}

// ListPendingAccounts returns unapproved staff accounts, oldest first.
func (r *StaffRepository) ListPendingAccounts(ctx context.Context) ([]models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE approved = false ORDER BY created_at ASC`, staffColumns)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("list pending staff: %w", err)
	}
	return staff, nil
}

// Delete removes a staff account.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM staff WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	return nil
}
