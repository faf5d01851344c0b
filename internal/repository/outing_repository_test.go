package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

func TestOutingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "purpose", "return_time", "status", "submitted_at",
		"decided_at", "decided_by", "returned_at", "rejection_reason", "updated_at",
		"student_name", "student_roll_no", "student_gender", "student_room_number", "decided_staff_name",
	}).AddRow("o1", "s1", "Medical appointment", nil, "submitted", now,
		nil, nil, nil, nil, now,
		"Ravi Kumar", "H-204", "male", "312", nil)

	mock.ExpectQuery(`SELECT o.id, .+ FROM outing_requests o`).
		WithArgs(string(models.OutingStatusSubmitted)).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM outing_requests o`).
		WithArgs(string(models.OutingStatusSubmitted)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	outings, total, err := repo.List(context.Background(), models.OutingFilter{Status: models.OutingStatusSubmitted}, now)
	require.NoError(t, err)
	assert.Len(t, outings, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ravi Kumar", outings[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryHasOpenForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	mock.ExpectQuery("SELECT 1 FROM outing_requests").
		WithArgs("s1", string(models.OutingStatusSubmitted), string(models.OutingStatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	open, err := repo.HasOpenForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, open)

	mock.ExpectQuery("SELECT 1 FROM outing_requests").
		WithArgs("s2", string(models.OutingStatusSubmitted), string(models.OutingStatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	open, err = repo.HasOpenForStudent(context.Background(), "s2")
	require.NoError(t, err)
	assert.False(t, open)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryDecide(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	expected := time.Now().UTC().Add(-time.Minute)
	now := time.Now().UTC()
	reason := "No chaperone available"

	mock.ExpectExec("UPDATE outing_requests").
		WithArgs("o1", string(models.OutingStatusRejected), "staff1", now, reason, string(models.OutingStatusSubmitted), expected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Decide(context.Background(), "o1", "staff1", models.OutingStatusRejected, &reason, expected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryMarkReturned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	expected := time.Now().UTC().Add(-2 * time.Hour)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE outing_requests").
		WithArgs("o1", string(models.OutingStatusCompleted), now, string(models.OutingStatusApproved), expected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.MarkReturned(context.Background(), "o1", expected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	ret := time.Now().UTC().Add(3 * time.Hour)
	rows := sqlmock.NewRows([]string{"outing_id", "student_id", "student_name", "student_roll_no", "student_room_number", "return_time"}).
		AddRow("o1", "s1", "Ravi Kumar", "H-204", "312", ret)
	mock.ExpectQuery(`SELECT o.id AS outing_id`).
		WithArgs(string(models.OutingStatusApproved), "male").
		WillReturnRows(rows)

	active, err := repo.ListActive(context.Background(), "male")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ravi Kumar", active[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	rows := sqlmock.NewRows([]string{"status", "day", "count"}).
		AddRow("submitted", "2026-08-27", 2).
		AddRow("approved", "2026-08-27", 1).
		AddRow("approved", "2026-08-28", 3)
	mock.ExpectQuery(`SELECT o.status, TO_CHAR\(o.submitted_at, 'YYYY-MM-DD'\) AS day`).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.ByStatus["approved"])
	require.Len(t, stats.PerDay, 2)
	assert.Equal(t, models.OutingDayCount{Day: "2026-08-27", Count: 3}, stats.PerDay[0])
	assert.Equal(t, models.OutingDayCount{Day: "2026-08-28", Count: 3}, stats.PerDay[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}
