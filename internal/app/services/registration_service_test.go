package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/events"
)

func registrationCount(f *fixture, examID, studentID int64) int {
	n := 0
	for _, r := range f.store.regs {
		if r.ExamID == examID && r.StudentID == studentID {
			n++
		}
	}
	return n
}

func TestRegisterTwiceIsConflict(t *testing.T) {
	f := newFixture()
	svc := NewRegistrationService(f.tx, f.repos, f.publisher, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	ctx := context.Background()

	reg, err := svc.Register(ctx, st.ID, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExamStatusRegistered), reg.ExamStatus)
	require.NotNil(t, reg.Student)
	assert.Equal(t, "201001", reg.Student.StudentIndex)

	_, err = svc.Register(ctx, st.ID, exam.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 1, registrationCount(f, exam.ID, st.ID))

	require.Len(t, f.publisher.types, 1)
	assert.Equal(t, events.TypeStudentRegistered, f.publisher.types[0])
}

func TestRegisterMissingReferences(t *testing.T) {
	f := newFixture()
	svc := NewRegistrationService(f.tx, f.repos, nil, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	ctx := context.Background()

	_, err := svc.Register(ctx, 404, exam.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	_, err = svc.Register(ctx, st.ID, 404)
	assert.ErrorIs(t, err, apperrors.ErrExamNotFound)
	assert.Empty(t, f.store.regs)
}

func TestRegisterCurrentStudent(t *testing.T) {
	f := newFixture()
	svc := NewRegistrationService(f.tx, f.repos, nil, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.addUser("staff@uni.edu", models.RoleStaff)
	f.addUser("orphan@uni.edu", models.RoleStudent)
	ctx := context.Background()

	t.Run("student", func(t *testing.T) {
		reg, err := svc.RegisterCurrentStudent(ctx, "S1@uni.edu", exam.ID)
		require.NoError(t, err)
		assert.Equal(t, st.ID, reg.StudentID)
	})

	t.Run("staff is forbidden", func(t *testing.T) {
		before := len(f.store.regs)
		_, err := svc.RegisterCurrentStudent(ctx, "staff@uni.edu", exam.ID)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		assert.Len(t, f.store.regs, before)
	})

	t.Run("student without profile", func(t *testing.T) {
		_, err := svc.RegisterCurrentStudent(ctx, "orphan@uni.edu", exam.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("unknown caller", func(t *testing.T) {
		_, err := svc.RegisterCurrentStudent(ctx, "ghost@uni.edu", exam.ID)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})
}

func TestAdministrativeRegistrationOverride(t *testing.T) {
	f := newFixture()
	svc := NewRegistrationService(f.tx, f.repos, nil, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.RegistrationRequest{ExamID: exam.ID, StudentID: st.ID, ExamStatus: "absent"})
	require.NoError(t, err)
	assert.Equal(t, "ABSENT", created.ExamStatus)

	updated, err := svc.Update(ctx, created.ID, &dto.RegistrationRequest{ExamID: exam.ID, StudentID: st.ID, ExamStatus: "REGISTERED"})
	require.NoError(t, err)
	assert.Equal(t, "REGISTERED", updated.ExamStatus)

	_, err = svc.Update(ctx, created.ID, &dto.RegistrationRequest{ExamID: exam.ID, StudentID: st.ID, ExamStatus: "LATE"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), apperrors.ErrRegistrationNotFound)
}
