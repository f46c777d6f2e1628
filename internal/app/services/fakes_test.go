package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
)

// memStore is an in-memory database shared by the fake repositories. Rows are
// stored by value so a snapshot taken by memTx can be restored on rollback.
type memStore struct {
	nextID      int64
	users       map[int64]models.User
	students    map[int64]models.Student
	courses     map[int64]models.Course
	assignments map[int64]models.CourseStaffAssignment
	enrollments map[int64]models.CourseEnrollment
	exams       map[int64]models.Exam
	regs        map[int64]models.StudentExamRegistration
	refresh     map[string]refreshRow
	resets      map[int64]models.PasswordResetToken
}

type refreshRow struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]models.User{},
		students:    map[int64]models.Student{},
		courses:     map[int64]models.Course{},
		assignments: map[int64]models.CourseStaffAssignment{},
		enrollments: map[int64]models.CourseEnrollment{},
		exams:       map[int64]models.Exam{},
		regs:        map[int64]models.StudentExamRegistration{},
		refresh:     map[string]refreshRow{},
		resets:      map[int64]models.PasswordResetToken{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memStore {
	return memStore{
		nextID:      s.nextID,
		users:       cloneMap(s.users),
		students:    cloneMap(s.students),
		courses:     cloneMap(s.courses),
		assignments: cloneMap(s.assignments),
		enrollments: cloneMap(s.enrollments),
		exams:       cloneMap(s.exams),
		regs:        cloneMap(s.regs),
		refresh:     cloneMap(s.refresh),
		resets:      cloneMap(s.resets),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// memTx rolls the store back to its state at entry when fn fails
type memTx struct {
	s     *memStore
	calls int
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		*t.s = snap
		return err
	}
	return nil
}

// fakeUsers implements repositories.IUserRepository
type fakeUsers struct{ s *memStore }

func (r fakeUsers) emailTaken(email string, except int64) bool {
	for id, u := range r.s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r fakeUsers) Create(_ context.Context, u *models.User) error {
	if r.emailTaken(u.Email, 0) {
		return apperrors.ErrEmailAlreadyExists
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	row := *u
	row.Student = nil
	r.s.users[u.ID] = row
	return nil
}

func (r fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r fakeUsers) Update(_ context.Context, u *models.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return apperrors.ErrEmailAlreadyExists
	}
	row := *u
	row.Student = nil
	r.s.users[u.ID] = row
	return nil
}

func (r fakeUsers) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, id := range sortedKeys(r.s.users) {
		u := r.s.users[id]
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	return r.emailTaken(email, 0), nil
}

func (r fakeUsers) UpdatePassword(_ context.Context, userID int64, hash string) error {
	u, ok := r.s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	r.s.users[userID] = u
	return nil
}

func (r fakeUsers) UpdateLastLogin(_ context.Context, userID int64) error {
	u, ok := r.s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	r.s.users[userID] = u
	return nil
}

func (r fakeUsers) GetByIDs(_ context.Context, ids []int64) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r fakeUsers) List(_ context.Context, offset uint64, limit int) ([]*models.User, int64, error) {
	keys := sortedKeys(r.s.users)
	var out []*models.User
	for i, id := range keys {
		if uint64(i) < offset || len(out) >= limit {
			continue
		}
		u := r.s.users[id]
		out = append(out, &u)
	}
	return out, int64(len(keys)), nil
}

func (r fakeUsers) ListByRole(_ context.Context, role models.RoleType) ([]*models.User, error) {
	var out []*models.User
	for _, id := range sortedKeys(r.s.users) {
		if u := r.s.users[id]; u.RoleType == role {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r fakeUsers) ListWithStudents(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, id := range sortedKeys(r.s.users) {
		u := r.s.users[id]
		for _, st := range r.s.students {
			if st.UserID == id {
				st := st
				u.Student = &st
			}
		}
		out = append(out, &u)
	}
	return out, nil
}

// fakeStudents implements repositories.IStudentRepository
type fakeStudents struct{ s *memStore }

func (r fakeStudents) hydrate(st models.Student) *models.Student {
	if u, ok := r.s.users[st.UserID]; ok {
		st.User = &u
	}
	return &st
}

func (r fakeStudents) Create(_ context.Context, st *models.Student) error {
	for _, other := range r.s.students {
		if other.UserID == st.UserID {
			return apperrors.ErrStudentProfileExists
		}
		if other.StudentIndex == st.StudentIndex {
			return apperrors.ErrStudentIndexAlreadyExists
		}
	}
	st.ID = r.s.id()
	row := *st
	row.User = nil
	r.s.students[st.ID] = row
	return nil
}

func (r fakeStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	st, ok := r.s.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return r.hydrate(st), nil
}

func (r fakeStudents) GetByUserID(_ context.Context, userID int64) (*models.Student, error) {
	for _, st := range r.s.students {
		if st.UserID == userID {
			return r.hydrate(st), nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (r fakeStudents) GetByIndex(_ context.Context, index string) (*models.Student, error) {
	for _, st := range r.s.students {
		if st.StudentIndex == index {
			return r.hydrate(st), nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (r fakeStudents) List(_ context.Context) ([]*models.Student, error) {
	var out []*models.Student
	for _, id := range sortedKeys(r.s.students) {
		out = append(out, r.hydrate(r.s.students[id]))
	}
	return out, nil
}

func (r fakeStudents) Update(_ context.Context, st *models.Student) error {
	if _, ok := r.s.students[st.ID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	for id, other := range r.s.students {
		if id != st.ID && other.StudentIndex == st.StudentIndex {
			return apperrors.ErrStudentIndexAlreadyExists
		}
	}
	row := *st
	row.User = nil
	r.s.students[st.ID] = row
	return nil
}

func (r fakeStudents) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.s.students, id)
	return nil
}

// fakeCourses implements repositories.ICourseRepository
type fakeCourses struct{ s *memStore }

func (r fakeCourses) duplicate(c *models.Course) bool {
	for id, other := range r.s.courses {
		if id != c.ID && other.Code == c.Code && other.Semester == c.Semester && other.AcademicYear == c.AcademicYear {
			return true
		}
	}
	return false
}

func (r fakeCourses) Create(_ context.Context, c *models.Course) error {
	if r.duplicate(c) {
		return apperrors.ErrCourseAlreadyExists
	}
	c.ID = r.s.id()
	r.s.courses[c.ID] = *c
	return nil
}

func (r fakeCourses) GetByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := r.s.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return &c, nil
}

func (r fakeCourses) List(_ context.Context) ([]*models.Course, error) {
	var out []*models.Course
	for _, id := range sortedKeys(r.s.courses) {
		c := r.s.courses[id]
		out = append(out, &c)
	}
	return out, nil
}

func (r fakeCourses) Update(_ context.Context, c *models.Course) error {
	if _, ok := r.s.courses[c.ID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	if r.duplicate(c) {
		return apperrors.ErrCourseAlreadyExists
	}
	r.s.courses[c.ID] = *c
	return nil
}

func (r fakeCourses) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.s.courses, id)
	return nil
}

// fakeAssignments implements repositories.IStaffAssignmentRepository
type fakeAssignments struct {
	s       *memStore
	creates int
	deletes int
}

func (r *fakeAssignments) Create(_ context.Context, a *models.CourseStaffAssignment) error {
	for _, other := range r.s.assignments {
		if other.CourseID == a.CourseID && other.Key() == a.Key() {
			return apperrors.ErrAlreadyAssigned
		}
	}
	a.ID = r.s.id()
	row := *a
	row.User, row.Course = nil, nil
	r.s.assignments[a.ID] = row
	r.creates++
	return nil
}

func (r *fakeAssignments) GetByID(_ context.Context, id int64) (*models.CourseStaffAssignment, error) {
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, apperrors.ErrAssignmentNotFound
	}
	return &a, nil
}

func (r *fakeAssignments) ListByCourse(_ context.Context, courseID int64) ([]*models.CourseStaffAssignment, error) {
	var out []*models.CourseStaffAssignment
	for _, id := range sortedKeys(r.s.assignments) {
		a := r.s.assignments[id]
		if a.CourseID != courseID {
			continue
		}
		if u, ok := r.s.users[a.UserID]; ok {
			a.User = &u
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r *fakeAssignments) ListByUser(_ context.Context, userID int64) ([]*models.CourseStaffAssignment, error) {
	var out []*models.CourseStaffAssignment
	for _, id := range sortedKeys(r.s.assignments) {
		a := r.s.assignments[id]
		if a.UserID != userID {
			continue
		}
		if c, ok := r.s.courses[a.CourseID]; ok {
			a.Course = &c
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r *fakeAssignments) IsAssigned(_ context.Context, courseID, userID int64) (bool, error) {
	for _, a := range r.s.assignments {
		if a.CourseID == courseID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAssignments) DeleteByIDs(_ context.Context, ids []int64) error {
	for _, id := range ids {
		if _, ok := r.s.assignments[id]; ok {
			delete(r.s.assignments, id)
			r.deletes++
		}
	}
	return nil
}

func (r *fakeAssignments) DeleteByCourse(_ context.Context, courseID int64) error {
	for id, a := range r.s.assignments {
		if a.CourseID == courseID {
			delete(r.s.assignments, id)
		}
	}
	return nil
}

func (r *fakeAssignments) DeleteByUser(_ context.Context, userID int64) error {
	for id, a := range r.s.assignments {
		if a.UserID == userID {
			delete(r.s.assignments, id)
		}
	}
	return nil
}

// fakeEnrollments implements repositories.IEnrollmentRepository
type fakeEnrollments struct{ s *memStore }

func (r fakeEnrollments) hydrate(e models.CourseEnrollment) *models.CourseEnrollment {
	if st, ok := r.s.students[e.StudentID]; ok {
		e.Student = fakeStudents{r.s}.hydrate(st)
	}
	if c, ok := r.s.courses[e.CourseID]; ok {
		e.Course = &c
	}
	return &e
}

func (r fakeEnrollments) Create(_ context.Context, e *models.CourseEnrollment) error {
	for _, other := range r.s.enrollments {
		if other.CourseID == e.CourseID && other.StudentID == e.StudentID {
			return apperrors.ErrAlreadyEnrolled
		}
	}
	e.ID = r.s.id()
	e.EnrolledAt = time.Now()
	row := *e
	row.Student, row.Course = nil, nil
	r.s.enrollments[e.ID] = row
	return nil
}

func (r fakeEnrollments) GetByID(_ context.Context, id int64) (*models.CourseEnrollment, error) {
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return r.hydrate(e), nil
}

func (r fakeEnrollments) list(match func(models.CourseEnrollment) bool) []*models.CourseEnrollment {
	var out []*models.CourseEnrollment
	for _, id := range sortedKeys(r.s.enrollments) {
		if e := r.s.enrollments[id]; match(e) {
			out = append(out, r.hydrate(e))
		}
	}
	return out
}

func (r fakeEnrollments) ListByCourse(_ context.Context, courseID int64) ([]*models.CourseEnrollment, error) {
	return r.list(func(e models.CourseEnrollment) bool { return e.CourseID == courseID }), nil
}

func (r fakeEnrollments) ListByStudent(_ context.Context, studentID int64) ([]*models.CourseEnrollment, error) {
	return r.list(func(e models.CourseEnrollment) bool { return e.StudentID == studentID }), nil
}

func (r fakeEnrollments) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.enrollments[id]; !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	delete(r.s.enrollments, id)
	return nil
}

func (r fakeEnrollments) DeleteByCourse(_ context.Context, courseID int64) error {
	for id, e := range r.s.enrollments {
		if e.CourseID == courseID {
			delete(r.s.enrollments, id)
		}
	}
	return nil
}

func (r fakeEnrollments) DeleteByStudent(_ context.Context, studentID int64) error {
	for id, e := range r.s.enrollments {
		if e.StudentID == studentID {
			delete(r.s.enrollments, id)
		}
	}
	return nil
}

// fakeExams implements repositories.IExamRepository
type fakeExams struct{ s *memStore }

func (r fakeExams) hydrate(e models.Exam) *models.Exam {
	if c, ok := r.s.courses[e.CourseID]; ok {
		e.Course = &c
	}
	return &e
}

func (r fakeExams) Create(_ context.Context, e *models.Exam) error {
	e.ID = r.s.id()
	e.CreatedAt = time.Now()
	row := *e
	row.Course = nil
	r.s.exams[e.ID] = row
	return nil
}

func (r fakeExams) GetByID(_ context.Context, id int64) (*models.Exam, error) {
	e, ok := r.s.exams[id]
	if !ok {
		return nil, apperrors.ErrExamNotFound
	}
	return r.hydrate(e), nil
}

func (r fakeExams) list(match func(models.Exam) bool) []*models.Exam {
	var out []*models.Exam
	for _, id := range sortedKeys(r.s.exams) {
		if e := r.s.exams[id]; match(e) {
			out = append(out, r.hydrate(e))
		}
	}
	return out
}

func (r fakeExams) List(_ context.Context) ([]*models.Exam, error) {
	return r.list(func(models.Exam) bool { return true }), nil
}

func (r fakeExams) ListByCourse(_ context.Context, courseID int64) ([]*models.Exam, error) {
	return r.list(func(e models.Exam) bool { return e.CourseID == courseID }), nil
}

func (r fakeExams) ListByCourseIDs(_ context.Context, courseIDs []int64) ([]*models.Exam, error) {
	set := make(map[int64]bool, len(courseIDs))
	for _, id := range courseIDs {
		set[id] = true
	}
	return r.list(func(e models.Exam) bool { return set[e.CourseID] }), nil
}

func (r fakeExams) Update(_ context.Context, e *models.Exam) error {
	old, ok := r.s.exams[e.ID]
	if !ok {
		return apperrors.ErrExamNotFound
	}
	row := *e
	row.Course = nil
	row.CreatedAt = old.CreatedAt
	r.s.exams[e.ID] = row
	return nil
}

func (r fakeExams) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.exams[id]; !ok {
		return apperrors.ErrExamNotFound
	}
	delete(r.s.exams, id)
	return nil
}

func (r fakeExams) DeleteByCourse(_ context.Context, courseID int64) error {
	for id, e := range r.s.exams {
		if e.CourseID == courseID {
			delete(r.s.exams, id)
		}
	}
	return nil
}

// fakeRegistrations implements repositories.IRegistrationRepository
type fakeRegistrations struct {
	s             *memStore
	statusUpdates int
}

func (r *fakeRegistrations) hydrate(reg models.StudentExamRegistration) *models.StudentExamRegistration {
	if st, ok := r.s.students[reg.StudentID]; ok {
		reg.Student = fakeStudents{r.s}.hydrate(st)
	}
	if e, ok := r.s.exams[reg.ExamID]; ok {
		reg.Exam = fakeExams{r.s}.hydrate(e)
	}
	return &reg
}

func (r *fakeRegistrations) store(reg *models.StudentExamRegistration) {
	row := *reg
	row.Student, row.Exam = nil, nil
	r.s.regs[reg.ID] = row
}

func (r *fakeRegistrations) Create(_ context.Context, reg *models.StudentExamRegistration) error {
	for _, other := range r.s.regs {
		if other.ExamID == reg.ExamID && other.StudentID == reg.StudentID {
			return apperrors.ErrAlreadyRegistered
		}
	}
	reg.ID = r.s.id()
	reg.RegisteredAt = time.Now()
	r.store(reg)
	return nil
}

func (r *fakeRegistrations) GetByID(_ context.Context, id int64) (*models.StudentExamRegistration, error) {
	reg, ok := r.s.regs[id]
	if !ok {
		return nil, apperrors.ErrRegistrationNotFound
	}
	return r.hydrate(reg), nil
}

func (r *fakeRegistrations) Exists(_ context.Context, examID, studentID int64) (bool, error) {
	for _, reg := range r.s.regs {
		if reg.ExamID == examID && reg.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrations) list(match func(models.StudentExamRegistration) bool) []*models.StudentExamRegistration {
	var out []*models.StudentExamRegistration
	for _, id := range sortedKeys(r.s.regs) {
		if reg := r.s.regs[id]; match(reg) {
			out = append(out, r.hydrate(reg))
		}
	}
	return out
}

func (r *fakeRegistrations) ListByExam(_ context.Context, examID int64) ([]*models.StudentExamRegistration, error) {
	return r.list(func(reg models.StudentExamRegistration) bool { return reg.ExamID == examID }), nil
}

func (r *fakeRegistrations) ListByExamAndStatus(_ context.Context, examID int64, status models.ExamStatus) ([]*models.StudentExamRegistration, error) {
	return r.list(func(reg models.StudentExamRegistration) bool {
		return reg.ExamID == examID && reg.ExamStatus == status
	}), nil
}

func (r *fakeRegistrations) ListByStudent(_ context.Context, studentID int64) ([]*models.StudentExamRegistration, error) {
	return r.list(func(reg models.StudentExamRegistration) bool { return reg.StudentID == studentID }), nil
}

func (r *fakeRegistrations) List(_ context.Context) ([]*models.StudentExamRegistration, error) {
	return r.list(func(models.StudentExamRegistration) bool { return true }), nil
}

func (r *fakeRegistrations) Update(_ context.Context, reg *models.StudentExamRegistration) error {
	if _, ok := r.s.regs[reg.ID]; !ok {
		return apperrors.ErrRegistrationNotFound
	}
	for id, other := range r.s.regs {
		if id != reg.ID && other.ExamID == reg.ExamID && other.StudentID == reg.StudentID {
			return apperrors.ErrAlreadyRegistered
		}
	}
	r.store(reg)
	return nil
}

func (r *fakeRegistrations) UpdateStatuses(_ context.Context, regs []*models.StudentExamRegistration) error {
	r.statusUpdates++
	for _, reg := range regs {
		row, ok := r.s.regs[reg.ID]
		if !ok {
			return apperrors.ErrRegistrationNotFound
		}
		row.ExamStatus = reg.ExamStatus
		r.s.regs[reg.ID] = row
	}
	return nil
}

func (r *fakeRegistrations) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.regs[id]; !ok {
		return apperrors.ErrRegistrationNotFound
	}
	delete(r.s.regs, id)
	return nil
}

func (r *fakeRegistrations) DeleteByExam(_ context.Context, examID int64) error {
	for id, reg := range r.s.regs {
		if reg.ExamID == examID {
			delete(r.s.regs, id)
		}
	}
	return nil
}

func (r *fakeRegistrations) DeleteByCourse(_ context.Context, courseID int64) error {
	for id, reg := range r.s.regs {
		if e, ok := r.s.exams[reg.ExamID]; ok && e.CourseID == courseID {
			delete(r.s.regs, id)
		}
	}
	return nil
}

func (r *fakeRegistrations) DeleteByStudent(_ context.Context, studentID int64) error {
	for id, reg := range r.s.regs {
		if reg.StudentID == studentID {
			delete(r.s.regs, id)
		}
	}
	return nil
}

// fakeTokens implements repositories.ITokenRepository
type fakeTokens struct{ s *memStore }

func (r fakeTokens) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	r.s.refresh[token] = refreshRow{userID: userID, expiry: expiry}
	return nil
}

func (r fakeTokens) GetTokenByValue(_ context.Context, token string) (int64, time.Time, error) {
	row, ok := r.s.refresh[token]
	switch {
	case !ok:
		return 0, time.Time{}, apperrors.ErrTokenNotFound
	case row.revoked:
		return 0, time.Time{}, apperrors.ErrTokenRevoked
	case time.Now().After(row.expiry):
		return 0, time.Time{}, apperrors.ErrTokenExpired
	}
	return row.userID, row.expiry, nil
}

func (r fakeTokens) RevokeToken(_ context.Context, token string) error {
	row, ok := r.s.refresh[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	row.revoked = true
	r.s.refresh[token] = row
	return nil
}

func (r fakeTokens) RevokeAllUserTokens(_ context.Context, userID int64) error {
	for token, row := range r.s.refresh {
		if row.userID == userID {
			row.revoked = true
			r.s.refresh[token] = row
		}
	}
	return nil
}

func (r fakeTokens) DeleteByUser(_ context.Context, userID int64) error {
	for token, row := range r.s.refresh {
		if row.userID == userID {
			delete(r.s.refresh, token)
		}
	}
	return nil
}

// fakeResetTokens implements repositories.IPasswordResetTokenRepository
type fakeResetTokens struct{ s *memStore }

func (r fakeResetTokens) Create(_ context.Context, t *models.PasswordResetToken) error {
	t.ID = r.s.id()
	t.CreatedAt = time.Now()
	r.s.resets[t.ID] = *t
	return nil
}

func (r fakeResetTokens) GetByToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	for _, t := range r.s.resets {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, apperrors.ErrTokenNotFound
}

func (r fakeResetTokens) MarkUsed(_ context.Context, id int64) error {
	t, ok := r.s.resets[id]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.Used = true
	r.s.resets[id] = t
	return nil
}

func (r fakeResetTokens) DeleteByUserID(_ context.Context, userID int64) error {
	for id, t := range r.s.resets {
		if t.UserID == userID {
			delete(r.s.resets, id)
		}
	}
	return nil
}

func (r fakeResetTokens) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for id, t := range r.s.resets {
		if t.IsExpired(now) {
			delete(r.s.resets, id)
			n++
		}
	}
	return n, nil
}

// plainHasher keeps tests fast; bcrypt is covered in pkg/auth
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Check(hash, p string) bool     { return hash == "hashed:"+p }

var _ auth.PasswordHasher = plainHasher{}

// fakeIssuer hands out numbered token pairs
type fakeIssuer struct{ n int }

func (f *fakeIssuer) GenerateTokenPair(u *models.User) (*auth.TokenPair, error) {
	f.n++
	return &auth.TokenPair{
		AccessToken:      fmt.Sprintf("access-%d-%d", u.ID, f.n),
		RefreshToken:     fmt.Sprintf("refresh-%d-%d", u.ID, f.n),
		ExpiresIn:        900,
		RefreshExpiresIn: 3600,
		RefreshExpiry:    time.Now().Add(time.Hour),
	}, nil
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	types    []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.types = append(p.types, eventType)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// fixture wires every service to one memStore
type fixture struct {
	store         *memStore
	tx            *memTx
	repos         Repos
	assignments   *fakeAssignments
	registrations *fakeRegistrations
	publisher     *recordingPublisher
	logger        zerolog.Logger
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{
		store:         s,
		tx:            &memTx{s: s},
		assignments:   &fakeAssignments{s: s},
		registrations: &fakeRegistrations{s: s},
		publisher:     &recordingPublisher{},
		logger:        zerolog.Nop(),
	}
	f.repos = Repos{
		Users:               fakeUsers{s},
		Students:            fakeStudents{s},
		Courses:             fakeCourses{s},
		Assignments:         f.assignments,
		Enrollments:         fakeEnrollments{s},
		Exams:               fakeExams{s},
		Registrations:       f.registrations,
		Tokens:              fakeTokens{s},
		PasswordResetTokens: fakeResetTokens{s},
	}
	return f
}

func (f *fixture) addUser(email string, role models.RoleType) *models.User {
	u := &models.User{
		Email:     email,
		Password:  "hashed:password1",
		FirstName: "First",
		LastName:  "Last",
		RoleType:  role,
		IsActive:  true,
	}
	if err := f.repos.Users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (f *fixture) addStudent(email, index, major string) *models.Student {
	u := f.addUser(email, models.RoleStudent)
	st := &models.Student{UserID: u.ID, StudentIndex: index, Major: major}
	if err := f.repos.Students.Create(context.Background(), st); err != nil {
		panic(err)
	}
	st.User = u
	return st
}

func (f *fixture) addCourse(code string) *models.Course {
	c := &models.Course{Code: code, Name: code + " course", Semester: 1, AcademicYear: 2025}
	if err := f.repos.Courses.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (f *fixture) addExam(courseID int64) *models.Exam {
	e := &models.Exam{
		CourseID:             courseID,
		Session:              "January",
		DateOfExam:           time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		CapacityOfStudents:   100,
		ReservedLaboratories: []string{"Lab1"},
		StartTime:            "09:00",
		EndTime:              "11:00",
	}
	if err := f.repos.Exams.Create(context.Background(), e); err != nil {
		panic(err)
	}
	return e
}

func (f *fixture) enroll(courseID, studentID int64) {
	if err := f.repos.Enrollments.Create(context.Background(), &models.CourseEnrollment{CourseID: courseID, StudentID: studentID}); err != nil {
		panic(err)
	}
}

func (f *fixture) register(examID, studentID int64, status models.ExamStatus) *models.StudentExamRegistration {
	reg := &models.StudentExamRegistration{ExamID: examID, StudentID: studentID, ExamStatus: status}
	if err := f.repos.Registrations.Create(context.Background(), reg); err != nil {
		panic(err)
	}
	return reg
}

func (f *fixture) status(regID int64) models.ExamStatus {
	return f.store.regs[regID].ExamStatus
}

// deadlineTx behaves like the postgres transactor: a transaction opened
// without a deadline gets one, and begin and commit fail once ctx is done.
type deadlineTx struct {
	memTx
	timeout time.Duration
	open    int
}

func (t *deadlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	t.open++
	defer func() { t.open-- }()
	return t.memTx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// slowHasher takes delay per hash and records hashes made inside a transaction
type slowHasher struct {
	tx       *deadlineTx
	delay    time.Duration
	insideTx int
}

func (h *slowHasher) Hash(p string) (string, error) {
	if h.tx.open > 0 {
		h.insideTx++
	}
	time.Sleep(h.delay)
	return "hashed:" + p, nil
}

func (h *slowHasher) Check(hash, p string) bool { return hash == "hashed:"+p }
