package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestComplaintRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "category", "severity", "description", "status", "submitted_at",
		"acknowledged_at", "acknowledged_by", "resolved_at", "resolved_by", "closing_note", "updated_at",
		"student_name", "student_roll_no", "student_gender", "student_room_number",
		"ack_staff_name", "resolved_staff_name",
	}).AddRow("c1", "s1", "Hygiene", "Medium", "Leaking tap", "submitted", now,
		nil, nil, nil, nil, nil, now,
		"Asha Rao", "H-101", "female", "204", nil, nil)

	mock.ExpectQuery(`SELECT c.id, .+ FROM complaints c`).
		WithArgs("Hygiene").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM complaints c`).
		WithArgs("Hygiene").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	complaints, total, err := repo.List(context.Background(), models.ComplaintFilter{Category: "Hygiene"}, now)
	require.NoError(t, err)
	assert.Len(t, complaints, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha Rao", complaints[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("INSERT INTO complaints").
		WithArgs(sqlmock.AnyArg(), "s1", "Food", "Low", "Cold breakfast", string(models.ComplaintStatusSubmitted), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	complaint := &models.Complaint{StudentID: "s1", Category: "Food", Severity: "Low", Description: "Cold breakfast"}
	err := repo.Create(context.Background(), complaint)
	require.NoError(t, err)
	assert.NotEmpty(t, complaint.ID)
	assert.Equal(t, models.ComplaintStatusSubmitted, complaint.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryAcknowledge(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	expected := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE complaints").
		WithArgs("c1", string(models.ComplaintStatusAcknowledged), "staff1", now, string(models.ComplaintStatusSubmitted), expected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Acknowledge(context.Background(), "c1", "staff1", expected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryAcknowledgeStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	expected := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE complaints").
		WithArgs("c1", string(models.ComplaintStatusAcknowledged), "staff1", now, string(models.ComplaintStatusSubmitted), expected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Acknowledge(context.Background(), "c1", "staff1", expected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	expected := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE complaints").
		WithArgs("c1", string(models.ComplaintStatusResolved), "staff1", now, "Fixed by plumber.",
			string(models.ComplaintStatusSubmitted), string(models.ComplaintStatusAcknowledged), expected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Resolve(context.Background(), "c1", "staff1", "Fixed by plumber.", expected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryListOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "category", "description"}).
		AddRow("c1", "Food", "Stale rice at dinner").
		AddRow("c2", "Hygiene", "Bathroom on floor two")
	mock.ExpectQuery(`SELECT c.id, c.category, c.description`).
		WithArgs(string(models.ComplaintStatusSubmitted), "female").
		WillReturnRows(rows)

	open, err := repo.ListOpen(context.Background(), "female")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "Food", open[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	rows := sqlmock.NewRows([]string{"category", "status", "severity", "count"}).
		AddRow("Food", "submitted", "Low", 3).
		AddRow("Food", "resolved", "Critical", 1).
		AddRow("Maintenance", "submitted", "Medium", 2)
	mock.ExpectQuery(`SELECT c.category, c.status, c.severity, COUNT\(\*\)`).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.ByCategory["Food"])
	assert.Equal(t, 5, stats.ByStatus["submitted"])
	assert.Equal(t, 1, stats.BySeverity["Critical"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
