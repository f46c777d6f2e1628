package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/repositories"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

type stubAssignments struct {
	repositories.IStaffAssignmentRepository
	assigned map[[2]int64]bool
}

func (s *stubAssignments) IsAssigned(_ context.Context, courseID, userID int64) (bool, error) {
	return s.assigned[[2]int64{courseID, userID}], nil
}

type stubExams struct {
	repositories.IExamRepository
	exams map[int64]*models.Exam
}

func (s *stubExams) GetByID(_ context.Context, id int64) (*models.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return nil, apperrors.ErrExamNotFound
	}
	return e, nil
}

func newTestService() *AuthorizationService {
	return NewAuthorizationService(
		&stubAssignments{assigned: map[[2]int64]bool{{10, 2}: true}},
		&stubExams{exams: map[int64]*models.Exam{7: {ID: 7, CourseID: 10}, 8: {ID: 8, CourseID: 11}}},
	)
}

func TestCanManageCourse(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	assert.NoError(t, s.CanManageCourse(ctx, 1, models.RoleAdministrator, 99))
	assert.NoError(t, s.CanManageCourse(ctx, 2, models.RoleStaff, 10))

	err := s.CanManageCourse(ctx, 2, models.RoleStaff, 11)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	err = s.CanManageCourse(ctx, 3, models.RoleStudent, 10)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCanManageExam(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	require.NoError(t, s.CanManageExam(ctx, 2, models.RoleStaff, 7))
	assert.ErrorIs(t, s.CanManageExam(ctx, 2, models.RoleStaff, 8), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, s.CanManageExam(ctx, 1, models.RoleAdministrator, 404), apperrors.ErrResourceNotFound)
}
