package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/events"
	"github.com/yigit/examadmin/internal/pkg/metrics"
)

// RegistrationService runs the exam registration workflow and the
// administrative registration CRUD
type RegistrationService struct {
	tx        Transactor
	repos     Repos
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(tx Transactor, repos Repos, publisher events.Publisher, logger zerolog.Logger) *RegistrationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &RegistrationService{tx: tx, repos: repos, publisher: publisher, logger: logger}
}

// RegisterCurrentStudent registers the caller, identified by email, for an exam.
// The caller must be a STUDENT with a student profile.
func (s *RegistrationService) RegisterCurrentStudent(ctx context.Context, callerEmail string, examID int64) (*dto.RegistrationResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if user.RoleType != models.RoleStudent {
		metrics.ExamRegistrations.WithLabelValues("forbidden").Inc()
		return nil, apperrors.NewForbiddenError("only students can register for exams")
	}

	student, err := s.repos.Students.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.NewInvalidStateError("no student profile is linked to this account")
		}
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}

	return s.Register(ctx, student.ID, examID)
}

// Register creates a REGISTERED registration for the pair.
// A pair that already exists, including one inserted concurrently, is a conflict.
func (s *RegistrationService) Register(ctx context.Context, studentID, examID int64) (*dto.RegistrationResponse, error) {
	var reg *models.StudentExamRegistration
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		student, err := s.repos.Students.GetByID(ctx, studentID)
		if err != nil {
			return err
		}
		exam, err := s.repos.Exams.GetByID(ctx, examID)
		if err != nil {
			return err
		}

		exists, err := s.repos.Registrations.Exists(ctx, examID, studentID)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if exists {
			return apperrors.ErrAlreadyRegistered
		}

		reg = &models.StudentExamRegistration{ExamID: examID, StudentID: studentID, ExamStatus: models.ExamStatusRegistered}
		if err := s.repos.Registrations.Create(ctx, reg); err != nil {
			return err
		}
		reg.Student = student
		reg.Exam = exam
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyRegistered) {
			metrics.ExamRegistrations.WithLabelValues("conflict").Inc()
		} else {
			metrics.ExamRegistrations.WithLabelValues(metrics.OutcomeFailure).Inc()
		}
		return nil, err
	}

	metrics.ExamRegistrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info().Int64("examID", examID).Int64("studentID", studentID).Int64("registrationID", reg.ID).Msg("Student registered for exam")
	if err := s.publisher.Publish(ctx, events.TypeStudentRegistered, events.StudentRegistered{
		RegistrationID: reg.ID,
		ExamID:         examID,
		StudentID:      studentID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish registration event")
	}

	resp := dto.NewRegistrationResponse(reg)
	return &resp, nil
}

// ListByExamAndStatus returns an exam's registrations holding status
func (s *RegistrationService) ListByExamAndStatus(ctx context.Context, examID int64, status models.ExamStatus) ([]dto.RegistrationResponse, error) {
	if _, err := s.repos.Exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	regs, err := s.repos.Registrations.ListByExamAndStatus(ctx, examID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return dto.NewRegistrationResponses(regs), nil
}

// ListByStudent returns a student's registrations with their exams
func (s *RegistrationService) ListByStudent(ctx context.Context, studentID int64) ([]dto.RegistrationResponse, error) {
	if _, err := s.repos.Students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	regs, err := s.repos.Registrations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return dto.NewRegistrationResponses(regs), nil
}

// List returns every registration
func (s *RegistrationService) List(ctx context.Context) ([]dto.RegistrationResponse, error) {
	regs, err := s.repos.Registrations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return dto.NewRegistrationResponses(regs), nil
}

// Get returns one registration
func (s *RegistrationService) Get(ctx context.Context, id int64) (*dto.RegistrationResponse, error) {
	reg, err := s.repos.Registrations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewRegistrationResponse(reg)
	return &resp, nil
}

func parseStatusOrDefault(raw string) (models.ExamStatus, error) {
	if raw == "" {
		return models.ExamStatusRegistered, nil
	}
	st, ok := models.ParseExamStatus(raw)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown exam status %q", raw))
	}
	return st, nil
}

// Create inserts a registration with any status, bypassing the workflow checks on role
func (s *RegistrationService) Create(ctx context.Context, req *dto.RegistrationRequest) (*dto.RegistrationResponse, error) {
	status, err := parseStatusOrDefault(req.ExamStatus)
	if err != nil {
		return nil, err
	}

	reg := &models.StudentExamRegistration{ExamID: req.ExamID, StudentID: req.StudentID, ExamStatus: status}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Students.GetByID(ctx, req.StudentID); err != nil {
			return err
		}
		if _, err := s.repos.Exams.GetByID(ctx, req.ExamID); err != nil {
			return err
		}
		return s.repos.Registrations.Create(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, reg.ID)
}

// Update overwrites every field of a registration
func (s *RegistrationService) Update(ctx context.Context, id int64, req *dto.RegistrationRequest) (*dto.RegistrationResponse, error) {
	status, err := parseStatusOrDefault(req.ExamStatus)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reg, err := s.repos.Registrations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.repos.Students.GetByID(ctx, req.StudentID); err != nil {
			return err
		}
		if _, err := s.repos.Exams.GetByID(ctx, req.ExamID); err != nil {
			return err
		}
		reg.ExamID = req.ExamID
		reg.StudentID = req.StudentID
		reg.ExamStatus = status
		return s.repos.Registrations.Update(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes one registration
func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	return s.repos.Registrations.Delete(ctx, id)
}
