package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type outingStore interface {
	List(ctx context.Context, filter models.OutingFilter, now time.Time) ([]models.OutingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.OutingRequest, error)
	HasOpenForStudent(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, outing *models.OutingRequest) error
	Decide(ctx context.Context, id, staffID string, decision models.OutingStatus, reason *string, expectedUpdatedAt, now time.Time) (int64, error)
	MarkReturned(ctx context.Context, id string, expectedUpdatedAt, now time.Time) (int64, error)
	ListActive(ctx context.Context, gender string) ([]models.ActiveOuting, error)
	Stats(ctx context.Context, gender string, since *time.Time) (*models.OutingStats, error)
}

type outingAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// OutingService owns the gate-pass lifecycle. A student may hold at most one
// request that is not yet rejected or completed.
type OutingService struct {
	repo      outingStore
	audits    outingAuditor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOutingService constructs an OutingService.
func NewOutingService(repo outingStore, audits outingAuditor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *OutingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutingService{
		repo:      repo,
		audits:    audits,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new outing request, rejecting it when the student already
// holds a submitted or approved one.
func (s *OutingService) Create(ctx context.Context, studentID string, req dto.CreateOutingRequest) (*models.OutingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outing payload")
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "purpose must not be empty")
	}

	open, err := s.repo.HasOpenForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open outings")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrDuplicateOuting, "an outing request is already pending or approved")
	}

	outing := &models.OutingRequest{
		StudentID:  studentID,
		Purpose:    strings.TrimSpace(req.Purpose),
		ReturnTime: req.ReturnTime,
	}
	if err := s.repo.Create(ctx, outing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create outing request")
	}
	s.invalidateStats(ctx)
	return outing, nil
}

// List returns outing requests visible to the caller. Students only see
// their own.
func (s *OutingService) List(ctx context.Context, claims *models.JWTClaims, filter models.OutingFilter) ([]models.OutingDetail, int, error) {
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.AccountID
	}
	outings, total, err := s.repo.List(ctx, filter, s.now())
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outing requests")
	}
	return outings, total, nil
}

// Get fetches a single outing request, enforcing student ownership.
func (s *OutingService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.OutingRequest, error) {
	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing request")
	}
	if claims.Role == models.RoleStudent && outing.StudentID != claims.AccountID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "outing request belongs to another student")
	}
	return outing, nil
}

// Decide approves or rejects a submitted request. Rejections require a
// reason; approvals discard any supplied one.
func (s *OutingService) Decide(ctx context.Context, staffID, id string, req dto.OutingDecisionRequest) (*models.OutingRequest, error) {
	if req.Decision != models.OutingStatusApproved && req.Decision != models.OutingStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}
	var reason *string
	if req.Decision == models.OutingStatusRejected {
		trimmed := strings.TrimSpace(req.Reason)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection reason is required")
		}
		reason = &trimmed
	}

	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing request")
	}
	if outing.Status != models.OutingStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only submitted requests can be decided")
	}

	affected, err := s.repo.Decide(ctx, id, staffID, req.Decision, reason, outing.UpdatedAt, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide outing request")
	}
	if affected == 0 {
		return nil, s.classifyMissedUpdate(ctx, id, models.OutingStatusSubmitted)
	}

	s.auditDecision(ctx, staffID, id, string(req.Decision))
	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, id)
}

// MarkReturned completes an approved outing when the student is back.
// Return marking is an explicit staff action, never clock-driven.
func (s *OutingService) MarkReturned(ctx context.Context, staffID, id string) (*models.OutingRequest, error) {
	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing request")
	}
	if outing.Status != models.OutingStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only approved outings can be marked returned")
	}

	affected, err := s.repo.MarkReturned(ctx, id, outing.UpdatedAt, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark outing returned")
	}
	if affected == 0 {
		return nil, s.classifyMissedUpdate(ctx, id, models.OutingStatusApproved)
	}

	s.auditDecision(ctx, staffID, id, string(models.OutingStatusCompleted))
	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, id)
}

// Stats aggregates request counts for the chart views, cached briefly in
// Redis. The second return reports whether the payload came from cache.
func (s *OutingService) Stats(ctx context.Context, gender string, window models.TimeWindow) (*models.OutingStats, bool, error) {
	key := StatsCacheKey("outings", gender, string(window))
	var cached models.OutingStats
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, true, nil
		}
	}

	var since *time.Time
	if t, ok := window.Since(s.now()); ok {
		since = &t
	}
	stats, err := s.repo.Stats(ctx, gender, since)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate outing stats")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, stats, 0)
	}
	return stats, false, nil
}

// Active lists students currently out on approved passes.
func (s *OutingService) Active(ctx context.Context, gender string) ([]models.ActiveOuting, error) {
	active, err := s.repo.ListActive(ctx, gender)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active outings")
	}
	return active, nil
}

func (s *OutingService) classifyMissedUpdate(ctx context.Context, id string, allowed models.OutingStatus) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload outing request")
	}
	if current.Status == allowed {
		return appErrors.Clone(appErrors.ErrStaleRecord, "outing request was modified concurrently")
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, "outing state does not allow this transition")
}

func (s *OutingService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, StatsCachePattern("outings")); err != nil {
		s.logger.Warn("failed to invalidate outing stats cache", zap.Error(err))
	}
}

func (s *OutingService) auditDecision(ctx context.Context, staffID, outingID, status string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		AccountID:  &staffID,
		Action:     models.AuditActionOutingDecision,
		Resource:   "outing",
		ResourceID: &outingID,
		NewValues:  []byte(`{"status":"` + status + `"}`),
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record outing audit log", zap.Error(err))
	}
}
