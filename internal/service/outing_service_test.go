package service

import (
	"context"
	"database/sql"
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

type mockOutingStore struct {
	outings map[string]*models.OutingRequest
	hasOpen bool
	created []*models.OutingRequest
}

func newMockOutingStore() *mockOutingStore {
	return &mockOutingStore{outings: make(map[string]*models.OutingRequest)}
}

func (m *mockOutingStore) List(ctx context.Context, filter models.OutingFilter, now time.Time) ([]models.OutingDetail, int, error) {
	return nil, 0, nil
}

func (m *mockOutingStore) FindByID(ctx context.Context, id string) (*models.OutingRequest, error) {
	o, ok := m.outings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *o
	return &copied, nil
}

func (m *mockOutingStore) HasOpenForStudent(ctx context.Context, studentID string) (bool, error) {
	return m.hasOpen, nil
}

func (m *mockOutingStore) Create(ctx context.Context, outing *models.OutingRequest) error {
	outing.ID = "generated"
	outing.Status = models.OutingStatusSubmitted
	m.created = append(m.created, outing)
	return nil
}

func (m *mockOutingStore) Decide(ctx context.Context, id, staffID string, decision models.OutingStatus, reason *string, expectedUpdatedAt, now time.Time) (int64, error) {
	o := m.outings[id]
	if o == nil || o.Status != models.OutingStatusSubmitted || !o.UpdatedAt.Equal(expectedUpdatedAt) {
		return 0, nil
	}
	o.Status = decision
	o.DecidedBy = &staffID
	o.RejectionReason = reason
	o.UpdatedAt = now
	return 1, nil
}

func (m *mockOutingStore) MarkReturned(ctx context.Context, id string, expectedUpdatedAt, now time.Time) (int64, error) {
	o := m.outings[id]
	if o == nil || o.Status != models.OutingStatusApproved || !o.UpdatedAt.Equal(expectedUpdatedAt) {
		return 0, nil
	}
	o.Status = models.OutingStatusCompleted
	o.ReturnedAt = &now
	o.UpdatedAt = now
	return 1, nil
}

func (m *mockOutingStore) ListActive(ctx context.Context, gender string) ([]models.ActiveOuting, error) {
	return nil, nil
}

func (m *mockOutingStore) Stats(ctx context.Context, gender string, since *time.Time) (*models.OutingStats, error) {
	return &models.OutingStats{ByStatus: make(map[string]int)}, nil
}

func newOutingService(store *mockOutingStore) *OutingService {
	return NewOutingService(store, &mockAuditor{}, nil, validator.New(), zap.NewNop())
}

func TestOutingServiceCreate(t *testing.T) {
	store := newMockOutingStore()
	svc := newOutingService(store)

	outing, err := svc.Create(context.Background(), "student-1", dto.CreateOutingRequest{Purpose: "  weekend visit home "})
	require.NoError(t, err)
	assert.Equal(t, "weekend visit home", outing.Purpose)
	assert.Equal(t, models.OutingStatusSubmitted, outing.Status)
}

func TestOutingServiceCreateBlocksDuplicate(t *testing.T) {
	store := newMockOutingStore()
	store.hasOpen = true
	svc := newOutingService(store)

	_, err := svc.Create(context.Background(), "student-1", dto.CreateOutingRequest{Purpose: "market"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateOuting.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestOutingServiceDecideApprove(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", Status: models.OutingStatusSubmitted, UpdatedAt: time.Now().UTC()}
	svc := newOutingService(store)

	outing, err := svc.Decide(context.Background(), "staff-1", "o1", dto.OutingDecisionRequest{Decision: models.OutingStatusApproved, Reason: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, models.OutingStatusApproved, outing.Status)
	assert.Nil(t, outing.RejectionReason)
}

func TestOutingServiceDecideRejectRequiresReason(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", Status: models.OutingStatusSubmitted, UpdatedAt: time.Now().UTC()}
	svc := newOutingService(store)

	_, err := svc.Decide(context.Background(), "staff-1", "o1", dto.OutingDecisionRequest{Decision: models.OutingStatusRejected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	outing, err := svc.Decide(context.Background(), "staff-1", "o1", dto.OutingDecisionRequest{Decision: models.OutingStatusRejected, Reason: "exams in progress"})
	require.NoError(t, err)
	assert.Equal(t, models.OutingStatusRejected, outing.Status)
	require.NotNil(t, outing.RejectionReason)
	assert.Equal(t, "exams in progress", *outing.RejectionReason)
}

func TestOutingServiceDecideInvalidDecision(t *testing.T) {
	store := newMockOutingStore()
	svc := newOutingService(store)

	_, err := svc.Decide(context.Background(), "staff-1", "o1", dto.OutingDecisionRequest{Decision: models.OutingStatusCompleted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOutingServiceDecideAlreadyDecided(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", Status: models.OutingStatusApproved, UpdatedAt: time.Now().UTC()}
	svc := newOutingService(store)

	_, err := svc.Decide(context.Background(), "staff-1", "o1", dto.OutingDecisionRequest{Decision: models.OutingStatusApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestOutingServiceMarkReturned(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", Status: models.OutingStatusApproved, UpdatedAt: time.Now().UTC()}
	svc := newOutingService(store)

	outing, err := svc.MarkReturned(context.Background(), "staff-1", "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OutingStatusCompleted, outing.Status)
	assert.NotNil(t, outing.ReturnedAt)
}

func TestOutingServiceMarkReturnedRequiresApproved(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", Status: models.OutingStatusSubmitted, UpdatedAt: time.Now().UTC()}
	svc := newOutingService(store)

	_, err := svc.MarkReturned(context.Background(), "staff-1", "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestOutingServiceGetEnforcesOwnership(t *testing.T) {
	store := newMockOutingStore()
	store.outings["o1"] = &models.OutingRequest{ID: "o1", StudentID: "student-1", Status: models.OutingStatusSubmitted}
	svc := newOutingService(store)

	_, err := svc.Get(context.Background(), &models.JWTClaims{AccountID: "student-2", Role: models.RoleStudent}, "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
