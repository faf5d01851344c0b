package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type mockComplaintStore struct {
	mu         sync.Mutex
	complaints map[string]*models.Complaint
	created    []*models.Complaint
	ackRows    int64
	resolveErr map[string]bool
}

func newMockComplaintStore() *mockComplaintStore {
	return &mockComplaintStore{complaints: make(map[string]*models.Complaint)}
}

func (m *mockComplaintStore) List(ctx context.Context, filter models.ComplaintFilter, now time.Time) ([]models.ComplaintDetail, int, error) {
	return nil, 0, nil
}

func (m *mockComplaintStore) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *mockComplaintStore) Create(ctx context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint.ID = "generated"
	complaint.Status = models.ComplaintStatusSubmitted
	m.created = append(m.created, complaint)
	return nil
}

func (m *mockComplaintStore) Acknowledge(ctx context.Context, id, staffID string, expectedUpdatedAt, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.complaints[id]
	if c == nil || c.Status != models.ComplaintStatusSubmitted || !c.UpdatedAt.Equal(expectedUpdatedAt) {
		return 0, nil
	}
	c.Status = models.ComplaintStatusAcknowledged
	c.AcknowledgedBy = &staffID
	c.UpdatedAt = now
	return 1, nil
}

func (m *mockComplaintStore) Resolve(ctx context.Context, id, staffID, note string, expectedUpdatedAt, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.complaints[id]
	if c == nil || !c.UpdatedAt.Equal(expectedUpdatedAt) {
		return 0, nil
	}
	if c.Status != models.ComplaintStatusSubmitted && c.Status != models.ComplaintStatusAcknowledged {
		return 0, nil
	}
	if m.resolveErr[id] {
		return 0, nil
	}
	c.Status = models.ComplaintStatusResolved
	c.ResolvedBy = &staffID
	c.ClosingNote = &note
	c.UpdatedAt = now
	return 1, nil
}

func (m *mockComplaintStore) Stats(ctx context.Context, gender string, since *time.Time) (*models.ComplaintStats, error) {
	return &models.ComplaintStats{Total: 1}, nil
}

type mockAuditor struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func newComplaintService(store *mockComplaintStore) *ComplaintService {
	return NewComplaintService(store, &mockAuditor{}, nil, validator.New(), zap.NewNop())
}

func TestComplaintServiceCreateDefaults(t *testing.T) {
	store := newMockComplaintStore()
	svc := newComplaintService(store)

	complaint, err := svc.Create(context.Background(), "student-1", dto.CreateComplaintRequest{Description: "  broken light in corridor  "})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, complaint.Category)
	assert.Equal(t, models.SeverityMedium, complaint.Severity)
	assert.Equal(t, "broken light in corridor", complaint.Description)
	assert.Equal(t, models.ComplaintStatusSubmitted, complaint.Status)
}

func TestComplaintServiceCreateRejectsEmptyDescription(t *testing.T) {
	store := newMockComplaintStore()
	svc := newComplaintService(store)

	_, err := svc.Create(context.Background(), "student-1", dto.CreateComplaintRequest{Description: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestComplaintServiceAcknowledgeThenResolve(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", Status: models.ComplaintStatusSubmitted, UpdatedAt: base}
	svc := newComplaintService(store)

	acked, err := svc.Acknowledge(context.Background(), "staff-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, "staff-1", *acked.AcknowledgedBy)

	resolved, err := svc.Resolve(context.Background(), "staff-1", "c1", "Fixed.")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ClosingNote)
	assert.Equal(t, "Fixed.", *resolved.ClosingNote)
}

func TestComplaintServiceAcknowledgeIdempotent(t *testing.T) {
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", Status: models.ComplaintStatusAcknowledged, UpdatedAt: time.Now().UTC()}
	svc := newComplaintService(store)

	acked, err := svc.Acknowledge(context.Background(), "staff-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusAcknowledged, acked.Status)
}

func TestComplaintServiceResolveDefaultsNote(t *testing.T) {
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", Status: models.ComplaintStatusSubmitted, UpdatedAt: time.Now().UTC()}
	svc := newComplaintService(store)

	resolved, err := svc.Resolve(context.Background(), "staff-1", "c1", "  ")
	require.NoError(t, err)
	require.NotNil(t, resolved.ClosingNote)
	assert.Equal(t, models.DefaultClosingNote, *resolved.ClosingNote)
}

func TestComplaintServiceResolveClosedComplaint(t *testing.T) {
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", Status: models.ComplaintStatusResolved, UpdatedAt: time.Now().UTC()}
	svc := newComplaintService(store)

	_, err := svc.Resolve(context.Background(), "staff-1", "c1", "again")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestComplaintServiceStaleUpdateClassified(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", Status: models.ComplaintStatusSubmitted, UpdatedAt: base}
	svc := newComplaintService(store)

	// Another actor touched the row after this caller's read: the state is
	// still eligible but the timestamp precondition no longer holds.
	affected, err := store.Acknowledge(context.Background(), "c1", "staff-1", base.Add(-time.Minute), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	clsErr := svc.classifyMissedUpdate(context.Background(), "c1", base.Add(-time.Minute), models.ComplaintStatusSubmitted)
	require.Error(t, clsErr)
	assert.Equal(t, appErrors.ErrStaleRecord.Code, appErrors.FromError(clsErr).Code)
}

func TestComplaintServiceBatchResolvePartialFailure(t *testing.T) {
	now := time.Now().UTC()
	store := newMockComplaintStore()
	store.complaints["ok1"] = &models.Complaint{ID: "ok1", Status: models.ComplaintStatusSubmitted, UpdatedAt: now}
	store.complaints["ok2"] = &models.Complaint{ID: "ok2", Status: models.ComplaintStatusAcknowledged, UpdatedAt: now}
	store.complaints["closed"] = &models.Complaint{ID: "closed", Status: models.ComplaintStatusResolved, UpdatedAt: now}
	svc := newComplaintService(store)

	result, err := svc.BatchResolve(context.Background(), "staff-1", dto.BatchResolveRequest{
		IDs: []string{"ok1", "ok2", "closed", "missing"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ok1", "ok2"}, result.Resolved)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, "closed")
	assert.Contains(t, result.Failed, "missing")

	// Failures must not roll back the successes.
	assert.Equal(t, models.ComplaintStatusResolved, store.complaints["ok1"].Status)
	assert.Equal(t, models.ComplaintStatusResolved, store.complaints["ok2"].Status)
}

func TestComplaintServiceStudentScopedList(t *testing.T) {
	store := newMockComplaintStore()
	svc := newComplaintService(store)

	claims := &models.JWTClaims{AccountID: "student-9", Role: models.RoleStudent}
	_, _, err := svc.List(context.Background(), claims, models.ComplaintFilter{StudentID: "someone-else"})
	require.NoError(t, err)
}

func TestComplaintServiceGetEnforcesOwnership(t *testing.T) {
	store := newMockComplaintStore()
	store.complaints["c1"] = &models.Complaint{ID: "c1", StudentID: "student-1", Status: models.ComplaintStatusSubmitted}
	svc := newComplaintService(store)

	_, err := svc.Get(context.Background(), &models.JWTClaims{AccountID: "student-2", Role: models.RoleStudent}, "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	complaint, err := svc.Get(context.Background(), &models.JWTClaims{AccountID: "staff-1", Role: models.RoleStaff}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", complaint.ID)
}
