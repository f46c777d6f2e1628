package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

// ExamService manages exam sessions
type ExamService struct {
	tx     Transactor
	repos  Repos
	logger zerolog.Logger
}

// NewExamService creates a new ExamService
func NewExamService(tx Transactor, repos Repos, logger zerolog.Logger) *ExamService {
	return &ExamService{tx: tx, repos: repos, logger: logger}
}

// List returns every exam, latest date first and earliest start first within a day
func (s *ExamService) List(ctx context.Context) ([]dto.ExamResponse, error) {
	exams, err := s.repos.Exams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return dto.NewExamResponses(exams), nil
}

// ListByCourse returns the exams of a course
func (s *ExamService) ListByCourse(ctx context.Context, courseID int64) ([]dto.ExamResponse, error) {
	if _, err := s.repos.Courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	exams, err := s.repos.Exams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return dto.NewExamResponses(exams), nil
}

// Get returns one exam
func (s *ExamService) Get(ctx context.Context, id int64) (*dto.ExamResponse, error) {
	exam, err := s.repos.Exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewExamResponse(exam)
	return &resp, nil
}

// Create validates and inserts an exam
func (s *ExamService) Create(ctx context.Context, req *dto.ExamRequest) (*dto.ExamResponse, error) {
	exam, err := buildExam(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Courses.GetByID(ctx, exam.CourseID); err != nil {
		return nil, err
	}
	if err := s.repos.Exams.Create(ctx, exam); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("examID", exam.ID).Int64("courseID", exam.CourseID).Msg("Exam created")
	return s.Get(ctx, exam.ID)
}

// Update validates and overwrites an exam
func (s *ExamService) Update(ctx context.Context, id int64, req *dto.ExamRequest) (*dto.ExamResponse, error) {
	exam, err := buildExam(req)
	if err != nil {
		return nil, err
	}
	exam.ID = id

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Exams.GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.repos.Courses.GetByID(ctx, exam.CourseID); err != nil {
			return err
		}
		return s.repos.Exams.Update(ctx, exam)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an exam and its registrations
func (s *ExamService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Exams.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Registrations.DeleteByExam(ctx, id); err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		return s.repos.Exams.Delete(ctx, id)
	})
}

// Mine returns the exams relevant to the caller: every exam for an
// administrator, exams of assigned courses for staff and exams of enrolled
// courses for students
func (s *ExamService) Mine(ctx context.Context, userID int64, role models.RoleType) ([]dto.ExamResponse, error) {
	var courseIDs []int64

	switch role {
	case models.RoleAdministrator:
		return s.List(ctx)
	case models.RoleStaff:
		assignments, err := s.repos.Assignments.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list assignments: %w", err)
		}
		for _, a := range assignments {
			courseIDs = append(courseIDs, a.CourseID)
		}
	case models.RoleStudent:
		student, err := s.repos.Students.GetByUserID(ctx, userID)
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return []dto.ExamResponse{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load student profile: %w", err)
		}
		enrollments, err := s.repos.Enrollments.ListByStudent(ctx, student.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list enrollments: %w", err)
		}
		for _, e := range enrollments {
			courseIDs = append(courseIDs, e.CourseID)
		}
	}

	if len(courseIDs) == 0 {
		return []dto.ExamResponse{}, nil
	}
	exams, err := s.repos.Exams.ListByCourseIDs(ctx, dedupe(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return dto.NewExamResponses(exams), nil
}
