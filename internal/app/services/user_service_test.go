package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

func TestCreateAndListUsers(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.tx, f.repos, plainHasher{}, f.logger)
	ctx := context.Background()

	for _, email := range []string{"a@uni.edu", "b@uni.edu", "c@uni.edu"} {
		_, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
			Email: email, Password: "password1", FirstName: "F", LastName: "L", Role: "staff",
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
		Email: "A@uni.edu", Password: "password1", FirstName: "F", LastName: "L", Role: "STAFF",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.CreateUser(ctx, &dto.CreateUserRequest{
		Email: "d@uni.edu", Password: "password1", FirstName: "F", LastName: "L", Role: "DEAN",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	page, err := svc.ListUsers(ctx, dto.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "c@uni.edu", page.Users[0].Email)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	staff, err := svc.ListByRole(ctx, models.RoleStaff)
	require.NoError(t, err)
	assert.Len(t, staff, 3)
}

func TestUpdateUserAwayFromStudentDropsProfile(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.tx, f.repos, plainHasher{}, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.enroll(course.ID, st.ID)
	f.register(exam.ID, st.ID, models.ExamStatusRegistered)
	ctx := context.Background()

	resp, err := svc.UpdateUser(ctx, st.UserID, &dto.UpdateUserRequest{
		Email: "s1@uni.edu", FirstName: "New", LastName: "Name", Role: "STAFF",
	})
	require.NoError(t, err)
	assert.Equal(t, "STAFF", resp.Role)
	assert.Equal(t, "hashed:password1", f.store.users[st.UserID].Password)
	assert.Empty(t, f.store.students)
	assert.Empty(t, f.store.enrollments)
	assert.Empty(t, f.store.regs)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.tx, f.repos, plainHasher{}, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	prof := f.addUser("prof@uni.edu", models.RoleStaff)
	f.enroll(course.ID, st.ID)
	f.register(exam.ID, st.ID, models.ExamStatusRegistered)
	require.NoError(t, f.repos.Assignments.Create(context.Background(), &models.CourseStaffAssignment{
		CourseID: course.ID, UserID: prof.ID, StaffRole: models.StaffRoleProfessor,
	}))
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, st.UserID))
	assert.Empty(t, f.store.students)
	assert.Empty(t, f.store.regs)
	assert.Empty(t, f.store.enrollments)

	require.NoError(t, svc.DeleteUser(ctx, prof.ID))
	assert.Empty(t, f.store.assignments)
	assert.Empty(t, f.store.users)

	assert.ErrorIs(t, svc.DeleteUser(ctx, prof.ID), apperrors.ErrUserNotFound)
}

func TestGetMyProfile(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.tx, f.repos, plainHasher{}, f.logger)
	course := f.addCourse("VP")
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.enroll(course.ID, st.ID)
	prof := f.addUser("prof@uni.edu", models.RoleStaff)
	require.NoError(t, f.repos.Assignments.Create(context.Background(), &models.CourseStaffAssignment{
		CourseID: course.ID, UserID: prof.ID, StaffRole: models.StaffRoleProfessor,
	}))
	ctx := context.Background()

	me, err := svc.GetMyProfile(ctx, st.UserID)
	require.NoError(t, err)
	require.NotNil(t, me.Student)
	assert.Equal(t, "201001", me.Student.StudentIndex)
	require.Len(t, me.Enrollments, 1)
	assert.Equal(t, "VP", me.Enrollments[0].Course.CourseCode)

	me, err = svc.GetMyProfile(ctx, prof.ID)
	require.NoError(t, err)
	assert.Nil(t, me.Student)
	require.Len(t, me.Assignments, 1)
	assert.Equal(t, "PROFESSOR", me.Assignments[0].StaffRole)
}
