package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type complaintStore interface {
	List(ctx context.Context, filter models.ComplaintFilter, now time.Time) ([]models.ComplaintDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	Acknowledge(ctx context.Context, id, staffID string, expectedUpdatedAt, now time.Time) (int64, error)
	Resolve(ctx context.Context, id, staffID, note string, expectedUpdatedAt, now time.Time) (int64, error)
	Stats(ctx context.Context, gender string, since *time.Time) (*models.ComplaintStats, error)
}

type complaintAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ComplaintService owns the complaint lifecycle. Transitions are conditional
// database updates; a zero-row result is re-read and classified rather than
// retried.
type ComplaintService struct {
	repo      complaintStore
	audits    complaintAuditor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(repo complaintStore, audits complaintAuditor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		repo:      repo,
		audits:    audits,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new complaint for the authenticated student. A blank
// category lands in the Other bucket; severity defaults to Medium.
func (s *ComplaintService) Create(ctx context.Context, studentID string, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description must not be empty")
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.CategoryOther
	}
	severity := models.ComplaintSeverity(req.Severity)
	if severity == "" {
		severity = models.SeverityMedium
	}

	complaint := &models.Complaint{
		StudentID:   studentID,
		Category:    category,
		Severity:    severity,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	s.invalidateStats(ctx)
	return complaint, nil
}

// List returns complaints visible to the caller. Students only ever see
// their own records regardless of the filter they send.
func (s *ComplaintService) List(ctx context.Context, claims *models.JWTClaims, filter models.ComplaintFilter) ([]models.ComplaintDetail, int, error) {
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.AccountID
	}
	complaints, total, err := s.repo.List(ctx, filter, s.now())
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, total, nil
}

// Get fetches a single complaint, enforcing student ownership.
func (s *ComplaintService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	if claims.Role == models.RoleStudent && complaint.StudentID != claims.AccountID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint belongs to another student")
	}
	return complaint, nil
}

// Acknowledge moves a submitted complaint to acknowledged, recording the
// acting staff member. Acknowledging an already acknowledged complaint is a
// no-op success.
func (s *ComplaintService) Acknowledge(ctx context.Context, staffID, id string) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	if complaint.Status == models.ComplaintStatusAcknowledged {
		return complaint, nil
	}

	affected, err := s.repo.Acknowledge(ctx, id, staffID, complaint.UpdatedAt, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge complaint")
	}
	if affected == 0 {
		return nil, s.classifyMissedUpdate(ctx, id, complaint.UpdatedAt, models.ComplaintStatusSubmitted)
	}

	s.auditUpdate(ctx, staffID, id, string(models.ComplaintStatusAcknowledged))
	return s.repo.FindByID(ctx, id)
}

// Resolve closes a submitted or acknowledged complaint with a note.
func (s *ComplaintService) Resolve(ctx context.Context, staffID, id, note string) (*models.Complaint, error) {
	if strings.TrimSpace(note) == "" {
		note = models.DefaultClosingNote
	}

	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	if complaint.Status == models.ComplaintStatusResolved || complaint.Status == models.ComplaintStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "complaint already closed")
	}

	affected, err := s.repo.Resolve(ctx, id, staffID, note, complaint.UpdatedAt, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve complaint")
	}
	if affected == 0 {
		return nil, s.classifyMissedUpdate(ctx, id, complaint.UpdatedAt, models.ComplaintStatusSubmitted, models.ComplaintStatusAcknowledged)
	}

	s.auditUpdate(ctx, staffID, id, string(models.ComplaintStatusResolved))
	s.invalidateStats(ctx)
	return s.repo.FindByID(ctx, id)
}

// BatchResolve resolves many complaints concurrently. Individual failures
// are reported per ID and never roll back the others.
func (s *ComplaintService) BatchResolve(ctx context.Context, staffID string, req dto.BatchResolveRequest) (*dto.BatchResolveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = models.DefaultClosingNote
	}

	type outcome struct {
		id  string
		err error
	}
	results := make([]outcome, len(req.IDs))

	var wg sync.WaitGroup
	for i, id := range req.IDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, err := s.Resolve(ctx, staffID, id, note)
			results[i] = outcome{id: id, err: err}
		}(i, id)
	}
	wg.Wait()

	result := &dto.BatchResolveResult{Resolved: make([]string, 0, len(req.IDs))}
	for _, r := range results {
		if r.err == nil {
			result.Resolved = append(result.Resolved, r.id)
			continue
		}
		if result.Failed == nil {
			result.Failed = make(map[string]string)
		}
		result.Failed[r.id] = appErrors.FromError(r.err).Message
	}
	return result, nil
}

// Stats aggregates complaint counts, cached briefly in Redis. The second
// return reports whether the payload came from cache.
func (s *ComplaintService) Stats(ctx context.Context, gender string, window models.TimeWindow) (*models.ComplaintStats, bool, error) {
	key := StatsCacheKey("complaints", gender, string(window))
	var cached models.ComplaintStats
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
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate complaint stats")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, stats, 0)
	}
	return stats, false, nil
}

// classifyMissedUpdate re-reads the row after a conditional update matched
// nothing and maps the situation onto the error taxonomy.
func (s *ComplaintService) classifyMissedUpdate(ctx context.Context, id string, expectedUpdatedAt time.Time, allowed ...models.ComplaintStatus) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload complaint")
	}
	for _, status := range allowed {
		if current.Status == status {
			// State still eligible, so only the timestamp moved.
			return appErrors.Clone(appErrors.ErrStaleRecord, "complaint was modified concurrently")
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, "complaint state does not allow this transition")
}

func (s *ComplaintService) auditUpdate(ctx context.Context, staffID, complaintID, newStatus string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		AccountID:  &staffID,
		Action:     models.AuditActionComplaintUpdate,
		Resource:   "complaint",
		ResourceID: &complaintID,
		NewValues:  []byte(`{"status":"` + newStatus + `"}`),
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record complaint audit log", zap.Error(err))
	}
}

func (s *ComplaintService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, StatsCachePattern("complaints")); err != nil {
		s.logger.Warn("failed to invalidate complaint stats cache", zap.Error(err))
	}
}
