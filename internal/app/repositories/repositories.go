package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/repositories/user"
)

// ICourseRepository defines course persistence
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// IStaffAssignmentRepository defines course staff assignment persistence
type IStaffAssignmentRepository interface {
	Create(ctx context.Context, a *models.CourseStaffAssignment) error
	GetByID(ctx context.Context, id int64) (*models.CourseStaffAssignment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.CourseStaffAssignment, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.CourseStaffAssignment, error)
	IsAssigned(ctx context.Context, courseID, userID int64) (bool, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// IEnrollmentRepository defines course enrollment persistence
type IEnrollmentRepository interface {
	Create(ctx context.Context, e *models.CourseEnrollment) error
	GetByID(ctx context.Context, id int64) (*models.CourseEnrollment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.CourseEnrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.CourseEnrollment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
	DeleteByStudent(ctx context.Context, studentID int64) error
}

// IExamRepository defines exam persistence
type IExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id int64) (*models.Exam, error)
	List(ctx context.Context) ([]*models.Exam, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Exam, error)
	ListByCourseIDs(ctx context.Context, courseIDs []int64) ([]*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// IRegistrationRepository defines exam registration persistence
type IRegistrationRepository interface {
	Create(ctx context.Context, reg *models.StudentExamRegistration) error
	GetByID(ctx context.Context, id int64) (*models.StudentExamRegistration, error)
	Exists(ctx context.Context, examID, studentID int64) (bool, error)
	ListByExam(ctx context.Context, examID int64) ([]*models.StudentExamRegistration, error)
	ListByExamAndStatus(ctx context.Context, examID int64, status models.ExamStatus) ([]*models.StudentExamRegistration, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.StudentExamRegistration, error)
	List(ctx context.Context) ([]*models.StudentExamRegistration, error)
	Update(ctx context.Context, reg *models.StudentExamRegistration) error
	UpdateStatuses(ctx context.Context, regs []*models.StudentExamRegistration) error
	Delete(ctx context.Context, id int64) error
	DeleteByExam(ctx context.Context, examID int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
	DeleteByStudent(ctx context.Context, studentID int64) error
}

// ITokenRepository defines refresh token persistence
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

// IPasswordResetTokenRepository defines password reset token persistence
type IPasswordResetTokenRepository interface {
	Create(ctx context.Context, t *models.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Users               *user.Repository
	Students            *user.StudentRepository
	Courses             *CourseRepository
	Assignments         *StaffAssignmentRepository
	Enrollments         *EnrollmentRepository
	Exams               *ExamRepository
	Registrations       *RegistrationRepository
	Tokens              *TokenRepository
	PasswordResetTokens *PasswordResetTokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:               user.NewRepository(db),
		Students:            user.NewStudentRepository(db),
		Courses:             NewCourseRepository(db),
		Assignments:         NewStaffAssignmentRepository(db),
		Enrollments:         NewEnrollmentRepository(db),
		Exams:               NewExamRepository(db),
		Registrations:       NewRegistrationRepository(db),
		Tokens:              NewTokenRepository(db),
		PasswordResetTokens: NewPasswordResetTokenRepository(db),
	}
}

var (
	_ ICourseRepository             = (*CourseRepository)(nil)
	_ IStaffAssignmentRepository    = (*StaffAssignmentRepository)(nil)
	_ IEnrollmentRepository         = (*EnrollmentRepository)(nil)
	_ IExamRepository               = (*ExamRepository)(nil)
	_ IRegistrationRepository       = (*RegistrationRepository)(nil)
	_ ITokenRepository              = (*TokenRepository)(nil)
	_ IPasswordResetTokenRepository = (*PasswordResetTokenRepository)(nil)
)
