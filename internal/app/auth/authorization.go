// Package auth decides whether a caller may act on course-scoped resources.
package auth

import (
	"context"
	"fmt"

	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/repositories"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	assignments repositories.IStaffAssignmentRepository
	exams       repositories.IExamRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(assignments repositories.IStaffAssignmentRepository, exams repositories.IExamRepository) *AuthorizationService {
	return &AuthorizationService{assignments: assignments, exams: exams}
}

// CanManageCourse allows administrators and staff assigned to the course
func (s *AuthorizationService) CanManageCourse(ctx context.Context, userID int64, role models.RoleType, courseID int64) error {
	switch role {
	case models.RoleAdministrator:
		return nil
	case models.RoleStaff:
		ok, err := s.assignments.IsAssigned(ctx, courseID, userID)
		if err != nil {
			logger.Error().Err(err).Int64("userID", userID).Int64("courseID", courseID).Msg("Error checking course assignment")
			return fmt.Errorf("failed to check course assignment: %w", err)
		}
		if ok {
			return nil
		}
	}
	return apperrors.NewForbiddenError("you are not assigned to this course")
}

// CanManageExam applies CanManageCourse to the exam's course
func (s *AuthorizationService) CanManageExam(ctx context.Context, userID int64, role models.RoleType, examID int64) error {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	return s.CanManageCourse(ctx, userID, role, exam.CourseID)
}
