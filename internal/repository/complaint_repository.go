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

// ComplaintRepository manages persistence for complaint records.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs a ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintDetailColumns = `c.id, c.student_id, c.category, c.severity, c.description, c.status, c.submitted_at,
        c.acknowledged_at, c.acknowledged_by, c.resolved_at, c.resolved_by, c.closing_note, c.updated_at,
        s.full_name AS student_name, s.roll_no AS student_roll_no, s.gender AS student_gender, s.room_number AS student_room_number,
        a.full_name AS ack_staff_name, r.full_name AS resolved_staff_name`

// List returns complaint details matching the provided filters, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter, now time.Time) ([]models.ComplaintDetail, int, error) {
	base := `FROM complaints c
        JOIN students s ON s.id = c.student_id
        LEFT JOIN staff a ON a.id = c.acknowledged_by
        LEFT JOIN staff r ON r.id = c.resolved_by`
	args := []interface{}{}
	conditions := []string{"s.deleted = false"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("c.severity = $%d", len(args)+1))
		args = append(args, filter.Severity)
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("s.gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.roll_no) LIKE $%d OR LOWER(c.description) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if since, ok := filter.Window.Since(now); ok {
		conditions = append(conditions, fmt.Sprintf("c.submitted_at >= $%d", len(args)+1))
		args = append(args, since)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY c.submitted_at DESC LIMIT %d OFFSET %d", complaintDetailColumns, base, size, offset)

	var complaints []models.ComplaintDetail
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// FindByID fetches a complaint row by ID.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	const query = `SELECT id, student_id, category, severity, description, status, submitted_at,
        acknowledged_at, acknowledged_by, resolved_at, resolved_by, closing_note, updated_at
        FROM complaints WHERE id = $1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// Create inserts a new complaint in the submitted state.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if complaint.SubmittedAt.IsZero() {
		complaint.SubmittedAt = now
	}
	complaint.Status = models.ComplaintStatusSubmitted
	complaint.UpdatedAt = now
	const query = `INSERT INTO complaints (id, student_id, category, severity, description, status, submitted_at, updated_at)
        VALUES (:id, :student_id, :category, :severity, :description, :status, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// Acknowledge conditionally moves a submitted complaint to acknowledged.
// The update carries both the state guard and an updated_at precondition;
// zero affected rows means the caller must re-read to classify the failure.
func (r *ComplaintRepository) Acknowledge(ctx context.Context, id, staffID string, expectedUpdatedAt, now time.Time) (int64, error) {
	const query = `UPDATE complaints
        SET status = $2, acknowledged_by = $3, acknowledged_at = $4, updated_at = $4
        WHERE id = $1 AND status = $5 AND updated_at = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.ComplaintStatusAcknowledged, staffID, now, models.ComplaintStatusSubmitted, expectedUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("acknowledge complaint: %w", err)
	}
	return res.RowsAffected()
}

// Resolve conditionally moves a submitted or acknowledged complaint to
// resolved, recording the closing note.
func (r *ComplaintRepository) Resolve(ctx context.Context, id, staffID, note string, expectedUpdatedAt, now time.Time) (int64, error) {
	const query = `UPDATE complaints
        SET status = $2, resolved_by = $3, resolved_at = $4, closing_note = $5, updated_at = $4
        WHERE id = $1 AND status IN ($6, $7) AND updated_at = $8`
	res, err := r.db.ExecContext(ctx, query, id, models.ComplaintStatusResolved, staffID, now, note,
		models.ComplaintStatusSubmitted, models.ComplaintStatusAcknowledged, expectedUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("resolve complaint: %w", err)
	}
	return res.RowsAffected()
}

// OpenComplaint is the slim projection the summarization engine consumes.
type OpenComplaint struct {
	ID          string `db:"id"`
	Category    string `db:"category"`
	Description string `db:"description"`
}

// ListOpen returns submitted complaints, optionally scoped to one gender
// partition, oldest first so summaries read chronologically.
func (r *ComplaintRepository) ListOpen(ctx context.Context, gender string) ([]OpenComplaint, error) {
	query := `SELECT c.id, c.category, c.description
        FROM complaints c JOIN students s ON s.id = c.student_id
        WHERE c.status = $1 AND s.deleted = false`
	args := []interface{}{models.ComplaintStatusSubmitted}
	if gender != "" {
		query += " AND s.gender = $2"
		args = append(args, gender)
	}
	query += " ORDER BY c.submitted_at ASC"

	var open []OpenComplaint
	if err := r.db.SelectContext(ctx, &open, query, args...); err != nil {
		return nil, fmt.Errorf("list open complaints: %w", err)
	}
	return open, nil
}

type complaintStatRow struct {
	Category string `db:"category"`
	Status   string `db:"status"`
	Severity string `db:"severity"`
	Count    int    `db:"count"`
}

// Stats aggregates complaint counts by category, status, and severity.
func (r *ComplaintRepository) Stats(ctx context.Context, gender string, since *time.Time) (*models.ComplaintStats, error) {
	query := `SELECT c.category, c.status, c.severity, COUNT(*) AS count
        FROM complaints c JOIN students s ON s.id = c.student_id
        WHERE s.deleted = false`
	args := []interface{}{}
	if gender != "" {
		args = append(args, gender)
		query += fmt.Sprintf(" AND s.gender = $%d", len(args))
	}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND c.submitted_at >= $%d", len(args))
	}
	query += " GROUP BY c.category, c.status, c.severity"

	var rows []complaintStatRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("complaint stats: %w", err)
	}

	stats := &models.ComplaintStats{
		ByStatus:   make(map[string]int),
		ByCategory: make(map[string]int),
		BySeverity: make(map[string]int),
	}
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByStatus[row.Status] += row.Count
		stats.ByCategory[row.Category] += row.Count
		stats.BySeverity[row.Severity] += row.Count
	}
	return stats, nil
}
