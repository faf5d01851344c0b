package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// OutingRepository manages persistence for outing (gate-pass) requests.
type OutingRepository struct {
	db *sqlx.DB
}

// NewOutingRepository constructs an OutingRepository.
func NewOutingRepository(db *sqlx.DB) *OutingRepository {
	return &OutingRepository{db: db}
}

// List returns outing details matching the provided filters, newest first.
func (r *OutingRepository) List(ctx context.Context, filter models.OutingFilter, now time.Time) ([]models.OutingDetail, int, error) {
	base := `FROM outing_requests o
        JOIN students s ON s.id = o.student_id
        LEFT JOIN staff d ON d.id = o.decided_by`
	args := []interface{}{}
	conditions := []string{"s.deleted = false"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("o.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("s.gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.roll_no) LIKE $%d OR LOWER(o.purpose) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if since, ok := filter.Window.Since(now); ok {
		conditions = append(conditions, fmt.Sprintf("o.submitted_at >= $%d", len(args)+1))
		args = append(args, since)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT o.id, o.student_id, o.purpose, o.return_time, o.status, o.submitted_at,
        o.decided_at, o.decided_by, o.returned_at, o.rejection_reason, o.updated_at,
        s.full_name AS student_name, s.roll_no AS student_roll_no, s.gender AS student_gender, s.room_number AS student_room_number,
        d.full_name AS decided_staff_name
        %s ORDER BY o.submitted_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var outings []models.OutingDetail
	if err := r.db.SelectContext(ctx, &outings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list outings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count outings: %w", err)
	}
	return outings, total, nil
}

// FindByID fetches an outing request row by ID.
func (r *OutingRepository) FindByID(ctx context.Context, id string) (*models.OutingRequest, error) {
	const query = `SELECT id, student_id, purpose, return_time, status, submitted_at,
        decided_at, decided_by, returned_at, rejection_reason, updated_at
        FROM outing_requests WHERE id = $1`
	var outing models.OutingRequest
	if err := r.db.GetContext(ctx, &outing, query, id); err != nil {
		return nil, err
	}
	return &outing, nil
}

// HasOpenForStudent reports whether the student already holds a submitted or
// approved request.
func (r *OutingRepository) HasOpenForStudent(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM outing_requests WHERE student_id = $1 AND status IN ($2, $3) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, models.OutingStatusSubmitted, models.OutingStatusApproved)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check open outing: %w", err)
	}
	return true, nil
}

// Create inserts a new outing request in the submitted state.
func (r *OutingRepository) Create(ctx context.Context, outing *models.OutingRequest) error {
	if outing.ID == "" {
		outing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if outing.SubmittedAt.IsZero() {
		outing.SubmittedAt = now
	}
	outing.Status = models.OutingStatusSubmitted
	outing.UpdatedAt = now
	const query = `INSERT INTO outing_requests (id, student_id, purpose, return_time, status, submitted_at, updated_at)
        VALUES (:id, :student_id, :purpose, :return_time, :status, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, outing); err != nil {
		return fmt.Errorf("create outing: %w", err)
	}
	return nil
}

// Decide conditionally approves or rejects a submitted request. The reason is
// stored only for rejections.
func (r *OutingRepository) Decide(ctx context.Context, id, staffID string, decision models.OutingStatus, reason *string, expectedUpdatedAt, now time.Time) (int64, error) {
	const query = `UPDATE outing_requests
        SET status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5, updated_at = $4
        WHERE id = $1 AND status = $6 AND updated_at = $7`
	res, err := r.db.ExecContext(ctx, query, id, decision, staffID, now, reason, models.OutingStatusSubmitted, expectedUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("decide outing: %w", err)
	}
	return res.RowsAffected()
}

// MarkReturned conditionally completes an approved request.
func (r *OutingRepository) MarkReturned(ctx context.Context, id string, expectedUpdatedAt, now time.Time) (int64, error) {
	const query = `UPDATE outing_requests
        SET status = $2, returned_at = $3, updated_at = $3
        WHERE id = $1 AND status = $4 AND updated_at = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.OutingStatusCompleted, now, models.OutingStatusApproved, expectedUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("mark outing returned: %w", err)
	}
	return res.RowsAffected()
}

type outingStatRow struct {
	Status string `db:"status"`
	Day    string `db:"day"`
	Count  int    `db:"count"`
}

// Stats aggregates request counts by status and submission day for the chart
// views. Soft-deleted students are excluded.
func (r *OutingRepository) Stats(ctx context.Context, gender string, since *time.Time) (*models.OutingStats, error) {
	query := `SELECT o.status, TO_CHAR(o.submitted_at, 'YYYY-MM-DD') AS day, COUNT(*) AS count
        FROM outing_requests o JOIN students s ON s.id = o.student_id
        WHERE s.deleted = false`
	args := []interface{}{}
	if gender != "" {
		args = append(args, gender)
		query += fmt.Sprintf(" AND s.gender = $%d", len(args))
	}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND o.submitted_at >= $%d", len(args))
	}
	query += " GROUP BY o.status, day ORDER BY day ASC"

	var rows []outingStatRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("outing stats: %w", err)
	}

	stats := &models.OutingStats{ByStatus: make(map[string]int)}
	perDay := make(map[string]int)
	days := make([]string, 0)
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByStatus[row.Status] += row.Count
		if _, seen := perDay[row.Day]; !seen {
			days = append(days, row.Day)
		}
		perDay[row.Day] += row.Count
	}
	stats.PerDay = make([]models.OutingDayCount, 0, len(days))
	for _, day := range days {
		stats.PerDay = append(stats.PerDay, models.OutingDayCount{Day: day, Count: perDay[day]})
	}
	return stats, nil
}

// ListActive returns the currently approved outings for the "out now" board.
func (r *OutingRepository) ListActive(ctx context.Context, gender string) ([]models.ActiveOuting, error) {
	query := `SELECT o.id AS outing_id, o.student_id, s.full_name AS student_name,
        s.roll_no AS student_roll_no, s.room_number AS student_room_number, o.return_time
        FROM outing_requests o JOIN students s ON s.id = o.student_id
        WHERE o.status = $1 AND s.deleted = false`
	args := []interface{}{models.OutingStatusApproved}
	if gender != "" {
		query += " AND s.gender = $2"
		args = append(args, gender)
	}
	query += " ORDER BY o.return_time ASC NULLS LAST"

	var active []models.ActiveOuting
	if err := r.db.SelectContext(ctx, &active, query, args...); err != nil {
		return nil, fmt.Errorf("list active outings: %w", err)
	}
	return active, nil
}
