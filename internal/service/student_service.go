package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
	StagePendingUpdate(ctx context.Context, id string, patch models.StudentPatch) error
}

// StudentService covers the resident directory and profile editing. Student
// edits are staged for staff approval; staff edits apply directly.
type StudentService struct {
	repo      studentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns the approved resident directory for staff views.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if filter.Approved == nil {
		approved := true
		filter.Approved = &approved
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get fetches one student profile. Students may only fetch their own.
func (s *StudentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Student, error) {
	if claims.Role == models.RoleStudent && claims.AccountID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another student's profile")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Deleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// UpdateProfile applies or stages a profile change depending on who asks.
func (s *StudentService) UpdateProfile(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateProfileRequest) (*models.Student, error) {
	if claims.Role == models.RoleStudent && claims.AccountID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit another student's profile")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Deleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	patch := req.Patch()

	if claims.Role == models.RoleStudent {
		if err := s.repo.StagePendingUpdate(ctx, id, patch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage profile update")
		}
		student.PendingUpdate = &patch
		return student, nil
	}

	applyPatch(student, patch)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete soft deletes a student, hiding them from every listing while the
// complaint and outing history stays queryable.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func applyPatch(student *models.Student, patch models.StudentPatch) {
	if patch.FullName != nil {
		student.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		student.Phone = *patch.Phone
	}
	if patch.ParentPhone != nil {
		student.ParentPhone = *patch.ParentPhone
	}
	if patch.RoomNumber != nil {
		student.RoomNumber = *patch.RoomNumber
	}
	if patch.Course != nil {
		student.Course = *patch.Course
	}
	if patch.Year != nil {
		student.Year = *patch.Year
	}
}
