package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/events"
)

func newCSVService(f *fixture) *CSVExchangeService {
	return NewCSVExchangeService(f.tx, f.repos, plainHasher{}, nil, f.publisher, f.logger)
}

func enrollmentCount(f *fixture, courseID int64) int {
	n := 0
	for _, e := range f.store.enrollments {
		if e.CourseID == courseID {
			n++
		}
	}
	return n
}

func TestImportRosterSkipsEnrolledStudents(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	s1 := f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.addStudent("s2@uni.edu", "201002", "SIIS")
	f.enroll(course.ID, s1.ID)

	csv := "StudentIndex,firstName\n201001,Ana\n\"201002\",Ivan\n\n201002,Ivan\n"
	created, err := svc.ImportRosterCSV(context.Background(), course.ID, "roster.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 2, enrollmentCount(f, course.ID))

	require.Len(t, f.publisher.types, 1)
	assert.Equal(t, events.TypeRosterImported, f.publisher.types[0])
}

func TestImportRosterAbortsOnUnknownIndex(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	f.addStudent("s1@uni.edu", "201001", "SIIS")

	_, err := svc.ImportRosterCSV(context.Background(), course.ID, "roster.csv", []byte("201001\n999999\n"))
	require.Error(t, err)

	var ref *apperrors.ReferenceNotFoundError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "Student", ref.Kind)
	assert.Equal(t, []string{"999999"}, ref.Refs)
	assert.Equal(t, 0, enrollmentCount(f, course.ID))
	assert.Empty(t, f.publisher.types)
}

func TestImportRosterBlankIndexIsValidationError(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	f.addStudent("s1@uni.edu", "201001", "SIIS")

	_, err := svc.ImportRosterCSV(context.Background(), course.ID, "roster.csv", []byte("201001\n,Ivan\n"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, 0, enrollmentCount(f, course.ID))
}

func TestImportRosterEmptyUpload(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")

	_, err := svc.ImportRosterCSV(context.Background(), course.ID, "roster.csv", []byte("  \n"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestExportRosterCSV(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	s1 := f.addStudent("s1@uni.edu", "201001", "Software, Systems")
	f.enroll(course.ID, s1.ID)

	out, err := svc.ExportRosterCSV(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t,
		"studentIndex,firstName,lastName,major,email,academicRole\n"+
			"201001,First,Last,\"Software, Systems\",s1@uni.edu,STUDENT\n",
		string(out))
}

func TestImportAttendanceReconcilesStatuses(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	s1 := f.addStudent("s1@uni.edu", "S1", "SIIS")
	s2 := f.addStudent("s2@uni.edu", "S2", "SIIS")
	s3 := f.addStudent("s3@uni.edu", "S3", "SIIS")
	r1 := f.register(exam.ID, s1.ID, models.ExamStatusRegistered)
	r2 := f.register(exam.ID, s2.ID, models.ExamStatusRegistered)
	r3 := f.register(exam.ID, s3.ID, models.ExamStatusAttended)

	csv := "studentIndex,studentMajor,firstName,lastName,examStatus\nS1,SIIS,A,B,REGISTERED\n,x\nS9,SIIS,C,D,REGISTERED\n"
	res, err := svc.ImportAttendanceCSV(context.Background(), exam.ID, "attendance.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, models.ExamStatusAttended, f.status(r1.ID))
	assert.Equal(t, models.ExamStatusAbsent, f.status(r2.ID))
	assert.Equal(t, models.ExamStatusAttended, f.status(r3.ID))

	assert.Equal(t, 2, res.Consumed)
	assert.Equal(t, 1, res.MarkedAttended)
	assert.Equal(t, 1, res.MarkedAbsent)
	assert.Equal(t, []int{3}, res.Skipped)
	assert.Equal(t, []string{"S9"}, res.Unmatched)
	assert.Equal(t, 1, f.registrations.statusUpdates)
}

func TestImportAttendanceEmptyUploadChangesNothing(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	s1 := f.addStudent("s1@uni.edu", "S1", "SIIS")
	r1 := f.register(exam.ID, s1.ID, models.ExamStatusRegistered)

	res, err := svc.ImportAttendanceCSV(context.Background(), exam.ID, "attendance.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Consumed)
	assert.Equal(t, models.ExamStatusRegistered, f.status(r1.ID))
	assert.Equal(t, 0, f.registrations.statusUpdates)
}

func TestExportAttendanceCSVFiltersByStatus(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	course := f.addCourse("VP")
	exam := f.addExam(course.ID)
	s1 := f.addStudent("s1@uni.edu", "S1", "SIIS")
	s2 := f.addStudent("s2@uni.edu", "S2", "SIIS")
	f.register(exam.ID, s1.ID, models.ExamStatusAttended)
	f.register(exam.ID, s2.ID, models.ExamStatusAbsent)

	out, err := svc.ExportAttendanceCSV(context.Background(), exam.ID, models.ExamStatusAbsent)
	require.NoError(t, err)
	assert.Equal(t, "studentIndex,studentMajor,firstName,lastName,examStatus\nS2,SIIS,First,Last,ABSENT\n", string(out))
}

func TestUserExportImportRoundTrip(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	f.addUser("admin@uni.edu", models.RoleAdministrator)
	f.addUser("prof@uni.edu", models.RoleStaff)
	f.addStudent("s1@uni.edu", "201001", "SIIS")
	f.addStudent("s2@uni.edu", "201002", "Computer \"Science\"")
	ctx := context.Background()

	exported, err := svc.ExportUsersCSV(ctx)
	require.NoError(t, err)
	usersBefore := len(f.store.users)
	studentsBefore := cloneMap(f.store.students)

	res, err := svc.ImportUsersCSV(ctx, "users.csv", exported)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, usersBefore, res.Updated)
	assert.Equal(t, usersBefore, len(f.store.users))
	assert.Equal(t, studentsBefore, f.store.students)

	again, err := svc.ExportUsersCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(exported), string(again))
}

func TestImportUsersIsolatesRowErrors(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	existing := f.addStudent("old@uni.edu", "100001", "SIIS")
	ctx := context.Background()

	csv := strings.Join([]string{
		"firstName,lastName,email,password,academicRole,studentIndex,major",
		"Ana,Petrova,ana@uni.edu,password1,STUDENT,201001,SIIS",
		"Ivo,Ivic,ivo@uni.edu,,STAFF,,",
		"Bad,Role,bad@uni.edu,password1,JANITOR,,",
		"No,Index,noindex@uni.edu,password1,STUDENT,,",
		"Old,Student,OLD@uni.edu,,STAFF,,",
		",Missing,missing@uni.edu,password1,USER,,",
	}, "\n")

	res, err := svc.ImportUsersCSV(ctx, "users.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 4)

	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "ivo@uni.edu", res.Errors[0].Email)
	assert.Contains(t, res.Errors[0].Error, "password")
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Equal(t, 5, res.Errors[2].Row)
	assert.Equal(t, 7, res.Errors[3].Row)

	ana, err := f.repos.Users.GetByEmail(ctx, "ana@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, "hashed:password1", ana.Password)
	st, err := f.repos.Students.GetByUserID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "201001", st.StudentIndex)

	old, err := f.repos.Users.GetByID(ctx, existing.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, old.RoleType)
	_, err = f.repos.Students.GetByID(ctx, existing.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = f.repos.Users.GetByEmail(ctx, "ivo@uni.edu")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestImportUsersRejectsMissingColumns(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)

	_, err := svc.ImportUsersCSV(context.Background(), "users.csv", []byte("firstName,lastName\nA,B\n"))
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, apperrors.Message(err), "email")

	_, err = svc.ImportUsersCSV(context.Background(), "users.csv", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestImportUsersAcceptsFreeFormValues(t *testing.T) {
	f := newFixture()
	svc := newCSVService(f)
	ctx := context.Background()

	csv := strings.Join([]string{
		"firstName,lastName,email,password,academicRole,studentIndex,major",
		"Dana,Tomic,dana@uni.edu,dt,STUDENT,2021_001,SIIS",
		"Eva,Lazic,eva@uni,password1,USER,,",
		"Filip,Ilic,filip@uni.edu,secret,STUDENT,221033.1,KNI",
		"Long,Index,long@uni.edu,secret,STUDENT," + strings.Repeat("9", 31) + ",KNI",
	}, "\n")

	res, err := svc.ImportUsersCSV(ctx, "users.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 5, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Error, "studentIndex")

	dana, err := f.repos.Users.GetByEmail(ctx, "dana@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, "hashed:dt", dana.Password)
	st, err := f.repos.Students.GetByUserID(ctx, dana.ID)
	require.NoError(t, err)
	assert.Equal(t, "2021_001", st.StudentIndex)

	_, err = f.repos.Users.GetByEmail(ctx, "eva@uni")
	assert.NoError(t, err)
}

func TestImportUsersHashesOutsideTransaction(t *testing.T) {
	f := newFixture()
	tx := &deadlineTx{memTx: memTx{s: f.store}, timeout: 50 * time.Millisecond}
	hasher := &slowHasher{tx: tx, delay: 15 * time.Millisecond}
	svc := NewCSVExchangeService(tx, f.repos, hasher, nil, f.publisher, f.logger)

	lines := []string{"firstName,lastName,email,password,academicRole"}
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("User,%d,user%d@uni.edu,password%d,USER", i, i, i))
	}

	res, err := svc.ImportUsersCSV(context.Background(), "users.csv", []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 8, res.Created)
	assert.Zero(t, hasher.insideTx)
	assert.Len(t, f.store.users, 8)
}
