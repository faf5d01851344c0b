package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type approvalStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	SoftDelete(ctx context.Context, id string) error
	ApplyPendingUpdate(ctx context.Context, id string) error
	ClearPendingUpdate(ctx context.Context, id string) error
	ListPendingAccounts(ctx context.Context) ([]models.Student, error)
	ListPendingUpdates(ctx context.Context) ([]models.Student, error)
}

type approvalStaffStore interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
	ListPendingAccounts(ctx context.Context) ([]models.Staff, error)
}

type approvalAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApprovalService drives the staff review queues: new account signups and
// staged profile updates.
type ApprovalService struct {
	students approvalStudentStore
	staff    approvalStaffStore
	audits   approvalAuditor
	logger   *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(students approvalStudentStore, staff approvalStaffStore, audits approvalAuditor, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{students: students, staff: staff, audits: audits, logger: logger}
}

// Queue assembles everything awaiting staff review.
func (s *ApprovalService) Queue(ctx context.Context) (*dto.ApprovalQueue, error) {
	pendingStudents, err := s.students.ListPendingAccounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending students")
	}
	pendingStaff, err := s.staff.ListPendingAccounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending staff")
	}
	pendingUpdates, err := s.students.ListPendingUpdates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending profile updates")
	}

	queue := &dto.ApprovalQueue{
		Accounts:       make([]dto.PendingAccount, 0, len(pendingStudents)+len(pendingStaff)),
		ProfileUpdates: pendingUpdates,
	}
	for i := range pendingStudents {
		queue.Accounts = append(queue.Accounts, dto.PendingAccount{Role: models.RoleStudent, Student: &pendingStudents[i]})
	}
	for i := range pendingStaff {
		queue.Accounts = append(queue.Accounts, dto.PendingAccount{Role: models.RoleStaff, Staff: &pendingStaff[i]})
	}
	return queue, nil
}

// ResolveAccount approves or rejects a pending signup. Rejection removes
// the account.
func (s *ApprovalService) ResolveAccount(ctx context.Context, actorID string, role models.Role, id string, approve bool) error {
	switch role {
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if student.Approved {
			return appErrors.Clone(appErrors.ErrConflict, "account already approved")
		}
		if approve {
			err = s.students.SetApproved(ctx, id, true)
		} else {
			err = s.students.SoftDelete(ctx, id)
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student account")
		}
	case models.RoleStaff:
		staff, err := s.staff.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
		}
		if staff.Approved {
			return appErrors.Clone(appErrors.ErrConflict, "account already approved")
		}
		if approve {
			err = s.staff.SetApproved(ctx, id, true)
		} else {
			err = s.staff.Delete(ctx, id)
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve staff account")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	action := models.AuditActionAccountApprove
	if !approve {
		action = models.AuditActionAccountReject
	}
	s.audit(ctx, actorID, action, id)
	return nil
}

// ResolveProfileUpdate applies or discards a staged profile change.
func (s *ApprovalService) ResolveProfileUpdate(ctx context.Context, actorID, studentID string, approve bool) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.PendingUpdate == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "no pending update for student")
	}

	if approve {
		err = s.students.ApplyPendingUpdate(ctx, studentID)
	} else {
		err = s.students.ClearPendingUpdate(ctx, studentID)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve profile update")
	}

	action := models.AuditActionAccountApprove
	if !approve {
		action = models.AuditActionAccountReject
	}
	s.audit(ctx, actorID, action, studentID)
	return nil
}

func (s *ApprovalService) audit(ctx context.Context, actorID, action, resourceID string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		AccountID:  &actorID,
		Action:     action,
		Resource:   "account",
		ResourceID: &resourceID,
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record approval audit log", zap.Error(err))
	}
}
