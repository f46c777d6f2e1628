package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

// StudentService manages student profiles
type StudentService struct {
	tx     Transactor
	repos  Repos
	logger zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(tx Transactor, repos Repos, logger zerolog.Logger) *StudentService {
	return &StudentService{tx: tx, repos: repos, logger: logger}
}

// List returns every student with its user
func (s *StudentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repos.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return dto.NewStudentResponses(students), nil
}

// Get returns one student
func (s *StudentService) Get(ctx context.Context, id int64) (*dto.StudentResponse, error) {
	st, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewStudentResponse(st)
	return &resp, nil
}

// GetByIndex finds a student by index
func (s *StudentService) GetByIndex(ctx context.Context, index string) (*dto.StudentResponse, error) {
	st, err := s.repos.Students.GetByIndex(ctx, strings.TrimSpace(index))
	if err != nil {
		return nil, err
	}
	resp := dto.NewStudentResponse(st)
	return &resp, nil
}

// Create attaches a profile to a STUDENT user that has none
func (s *StudentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	index, major := strings.TrimSpace(req.StudentIndex), strings.TrimSpace(req.Major)
	if err := validateStudentFields(index, major); err != nil {
		return nil, err
	}

	var st *models.Student
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.repos.Users.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user.RoleType != models.RoleStudent {
			return apperrors.NewValidationError("user must have role STUDENT")
		}

		_, err = s.repos.Students.GetByUserID(ctx, req.UserID)
		if err == nil {
			return apperrors.ErrStudentProfileExists
		}
		if !errors.Is(err, apperrors.ErrStudentNotFound) {
			return fmt.Errorf("failed to look up student profile: %w", err)
		}

		st = &models.Student{UserID: user.ID, StudentIndex: index, Major: major, User: user}
		return s.repos.Students.Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", st.ID).Int64("userID", st.UserID).Msg("Student profile created")
	resp := dto.NewStudentResponse(st)
	return &resp, nil
}

// Update overwrites index and major
func (s *StudentService) Update(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	index, major := strings.TrimSpace(req.StudentIndex), strings.TrimSpace(req.Major)
	if err := validateStudentFields(index, major); err != nil {
		return nil, err
	}

	st, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	st.StudentIndex, st.Major = index, major
	if err := s.repos.Students.Update(ctx, st); err != nil {
		return nil, err
	}
	resp := dto.NewStudentResponse(st)
	return &resp, nil
}

// Delete removes the profile with its registrations and enrollments and keeps the user
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Students.GetByID(ctx, id); err != nil {
			return err
		}
		return removeStudentProfile(ctx, s.repos, id)
	})
}

// DeleteWithUser removes the profile and then its owning user
func (s *StudentService) DeleteWithUser(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		st, err := s.repos.Students.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return deleteUserCascade(ctx, s.repos, st.UserID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("studentID", id).Msg("Student and user deleted")
	return nil
}

// Enrollments returns the courses a student is enrolled in
func (s *StudentService) Enrollments(ctx context.Context, id int64) ([]dto.EnrollmentResponse, error) {
	if _, err := s.repos.Students.GetByID(ctx, id); err != nil {
		return nil, err
	}
	es, err := s.repos.Enrollments.ListByStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return dto.NewEnrollmentResponses(es), nil
}
