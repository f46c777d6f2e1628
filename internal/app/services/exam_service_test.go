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

func examRequest(courseID int64) *dto.ExamRequest {
	return &dto.ExamRequest{
		CourseID:             courseID,
		Session:              "January 2025",
		DateOfExam:           "2025-01-20",
		CapacityOfStudents:   120,
		ReservedLaboratories: []string{" Lab 1 ", "Lab 2"},
		StartTime:            "09:00",
		EndTime:              "11:00",
	}
}

func TestCreateExam(t *testing.T) {
	f := newFixture()
	svc := NewExamService(f.tx, f.repos, f.logger)
	course := f.addCourse("VP")
	ctx := context.Background()

	resp, err := svc.Create(ctx, examRequest(course.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lab 1", "Lab 2"}, resp.ReservedLaboratories)
	assert.Equal(t, "09:00", resp.StartTime)

	_, err = svc.Create(ctx, examRequest(404))
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestCreateExamValidation(t *testing.T) {
	f := newFixture()
	svc := NewExamService(f.tx, f.repos, f.logger)
	course := f.addCourse("VP")

	cases := map[string]func(r *dto.ExamRequest){
		"end before start": func(r *dto.ExamRequest) { r.StartTime, r.EndTime = "11:00", "09:00" },
		"no labs":          func(r *dto.ExamRequest) { r.ReservedLaboratories = nil },
		"blank lab":        func(r *dto.ExamRequest) { r.ReservedLaboratories = []string{" "} },
		"bad date":         func(r *dto.ExamRequest) { r.DateOfExam = "20.01.2025" },
		"zero capacity":    func(r *dto.ExamRequest) { r.CapacityOfStudents = 0 },
		"blank session":    func(r *dto.ExamRequest) { r.Session = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := examRequest(course.ID)
			mutate(req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
	assert.Empty(t, f.store.exams)
}

func TestDeleteExamRemovesRegistrations(t *testing.T) {
	f := newFixture()
	svc := NewExamService(f.tx, f.repos, f.logger)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.register(exam.ID, st.ID, models.ExamStatusRegistered)

	require.NoError(t, svc.Delete(context.Background(), exam.ID))
	assert.Empty(t, f.store.exams)
	assert.Empty(t, f.store.regs)
}

func TestMineByRole(t *testing.T) {
	f := newFixture()
	svc := NewExamService(f.tx, f.repos, f.logger)
	vp := f.addCourse("VP")
	db := f.addCourse("DB")
	vpExam := f.addExam(vp.ID)
	dbExam := f.addExam(db.ID)
	prof := f.addUser("prof@uni.edu", models.RoleStaff)
	admin := f.addUser("admin@uni.edu", models.RoleAdministrator)
	plain := f.addUser("user@uni.edu", models.RoleUser)
	st := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.enroll(db.ID, st.ID)
	require.NoError(t, f.repos.Assignments.Create(context.Background(), &models.CourseStaffAssignment{
		CourseID: vp.ID, UserID: prof.ID, StaffRole: models.StaffRoleAssistant,
	}))
	ctx := context.Background()

	mine, err := svc.Mine(ctx, prof.ID, models.RoleStaff)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, vpExam.ID, mine[0].ID)

	mine, err = svc.Mine(ctx, st.UserID, models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, dbExam.ID, mine[0].ID)

	mine, err = svc.Mine(ctx, admin.ID, models.RoleAdministrator)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	mine, err = svc.Mine(ctx, plain.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
