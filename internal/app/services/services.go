// Package services holds the business logic behind the HTTP handlers.
package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/examadmin/internal/app/repositories"
)

// Transactor runs fn inside a transaction carried by the context it receives.
// Nested calls run as savepoints of the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repos groups the repository contracts the services depend on
type Repos struct {
	Users               repositories.IUserRepository
	Students            repositories.IStudentRepository
	Courses             repositories.ICourseRepository
	Assignments         repositories.IStaffAssignmentRepository
	Enrollments         repositories.IEnrollmentRepository
	Exams               repositories.IExamRepository
	Registrations       repositories.IRegistrationRepository
	Tokens              repositories.ITokenRepository
	PasswordResetTokens repositories.IPasswordResetTokenRepository
}

// ReposFrom exposes the Postgres repositories through their contracts
func ReposFrom(r *repositories.Repositories) Repos {
	return Repos{
		Users:               r.Users,
		Students:            r.Students,
		Courses:             r.Courses,
		Assignments:         r.Assignments,
		Enrollments:         r.Enrollments,
		Exams:               r.Exams,
		Registrations:       r.Registrations,
		Tokens:              r.Tokens,
		PasswordResetTokens: r.PasswordResetTokens,
	}
}

// Clock returns the current time
type Clock func() time.Time

// TokenGenerator produces opaque single-use tokens
type TokenGenerator func() string

// DefaultTokenGenerator issues random UUIDs
func DefaultTokenGenerator() string {
	return uuid.NewString()
}

func idsToStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}
