package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
)

// Default administrator credentials
const (
	AdminEmail    = "admin@examadmin.local"
	AdminPassword = "Admin123!"
)

// Options control what CreateDefaultData writes
type Options struct {
	// Demo adds sample users, courses and exams to an otherwise empty database
	Demo bool
}

// CreateDefaultData creates the default administrator and, optionally, demo data.
// Demo data is only written while the administrator is the only user.
func CreateDefaultData(ctx context.Context, tx services.Transactor, repos services.Repos, hasher auth.PasswordHasher, opts Options, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")

	if err := ensureAdmin(ctx, repos, hasher, lgr); err != nil {
		return err
	}
	if !opts.Demo {
		return nil
	}

	_, total, err := repos.Users.List(ctx, 0, 1)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if total > 1 {
		lgr.Info().Int64("users", total).Msg("Users already present, skipping demo data")
		return nil
	}

	if err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return createDemoData(ctx, repos, hasher)
	}); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo data")
		return err
	}
	lgr.Info().Msg("Demo data created")
	return nil
}

func ensureAdmin(ctx context.Context, repos services.Repos, hasher auth.PasswordHasher, lgr zerolog.Logger) error {
	exists, err := repos.Users.EmailExists(ctx, AdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashed, err := hasher.Hash(AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &appModels.User{
		Email:     AdminEmail,
		Password:  hashed,
		FirstName: "System",
		LastName:  "Administrator",
		RoleType:  appModels.RoleAdministrator,
		IsActive:  true,
	}
	if err := repos.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}
	lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
	return nil
}

type demoUser struct {
	email, password, first, last string
	role                         appModels.RoleType
}

func createDemoData(ctx context.Context, repos services.Repos, hasher auth.PasswordHasher) error {
	users := []demoUser{
		{"dt@examadmin.local", "dt-password", "Dimitar", "Trposki", appModels.RoleStaff},
		{"jj@examadmin.local", "jj-password", "Jovan", "Jovanov", appModels.RoleStaff},
		{"ii@examadmin.local", "ii-password", "Ivan", "Ivanov", appModels.RoleStudent},
		{"user@examadmin.local", "user-password", "Demo", "User", appModels.RoleUser},
	}
	created := make([]*appModels.User, 0, len(users))
	for _, u := range users {
		hashed, err := hasher.Hash(u.password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.email, err)
		}
		user := &appModels.User{
			Email:     u.email,
			Password:  hashed,
			FirstName: u.first,
			LastName:  u.last,
			RoleType:  u.role,
			IsActive:  true,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.email, err)
		}
		created = append(created, user)
	}
	professor, assistant, studentUser := created[0], created[1], created[2]

	courses := []*appModels.Course{
		{Code: "VP", Name: "Visual Programming", Semester: 7, AcademicYear: 2025},
		{Code: "VNP", Name: "Advanced Web Programming", Semester: 5, AcademicYear: 2024},
		{Code: "SKIT", Name: "Software Quality and Testing", Semester: 6, AcademicYear: 2024},
	}
	for _, c := range courses {
		if err := repos.Courses.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create course %s: %w", c.Code, err)
		}
	}

	exams := []*appModels.Exam{
		{CourseID: courses[0].ID, Session: "January", DateOfExam: date(2026, time.January, 15), CapacityOfStudents: 200,
			ReservedLaboratories: []string{"117", "215"}, StartTime: "08:00", EndTime: "10:00"},
		{CourseID: courses[1].ID, Session: "June", DateOfExam: date(2026, time.June, 15), CapacityOfStudents: 150,
			ReservedLaboratories: []string{"117", "215", "200ab"}, StartTime: "10:00", EndTime: "13:00"},
		{CourseID: courses[2].ID, Session: "September", DateOfExam: date(2026, time.September, 15), CapacityOfStudents: 100,
			ReservedLaboratories: []string{"215", "200ab"}, StartTime: "12:00", EndTime: "14:00"},
	}
	for _, e := range exams {
		if err := repos.Exams.Create(ctx, e); err != nil {
			return fmt.Errorf("failed to create exam %s: %w", e.Session, err)
		}
	}

	student := &appModels.Student{UserID: studentUser.ID, StudentIndex: "221033", Major: "SIIS"}
	if err := repos.Students.Create(ctx, student); err != nil {
		return fmt.Errorf("failed to create student profile: %w", err)
	}

	if err := repos.Enrollments.Create(ctx, &appModels.CourseEnrollment{CourseID: courses[0].ID, StudentID: student.ID}); err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	for _, a := range []*appModels.CourseStaffAssignment{
		{CourseID: courses[0].ID, UserID: professor.ID, StaffRole: appModels.StaffRoleProfessor},
		{CourseID: courses[0].ID, UserID: assistant.ID, StaffRole: appModels.StaffRoleAssistant},
	} {
		if err := repos.Assignments.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to create staff assignment: %w", err)
		}
	}

	reg := &appModels.StudentExamRegistration{ExamID: exams[0].ID, StudentID: student.ID, ExamStatus: appModels.ExamStatusRegistered}
	if err := repos.Registrations.Create(ctx, reg); err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
