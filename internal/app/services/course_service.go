package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

// CourseService manages courses, their staff and enrollments
type CourseService struct {
	tx     Transactor
	repos  Repos
	staff  *StaffAssignmentService
	logger zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(tx Transactor, repos Repos, staff *StaffAssignmentService, logger zerolog.Logger) *CourseService {
	return &CourseService{tx: tx, repos: repos, staff: staff, logger: logger}
}

// List returns every course
func (s *CourseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repos.Courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return dto.NewCourseResponses(courses), nil
}

// Get returns one course
func (s *CourseService) Get(ctx context.Context, id int64) (*dto.CourseResponse, error) {
	c, err := s.repos.Courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCourseResponse(c)
	return &resp, nil
}

// Create inserts a course and assigns its staff in one transaction
func (s *CourseService) Create(ctx context.Context, req *dto.CourseRequest) (*dto.CourseDetailResponse, error) {
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:         strings.TrimSpace(req.CourseCode),
		Name:         strings.TrimSpace(req.CourseName),
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	}

	var staff *dto.ReconcileResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Courses.Create(ctx, course); err != nil {
			return err
		}
		var err error
		staff, err = s.staff.ApplyStaffAssignments(ctx, course.ID, req.ProfessorIDs, req.AssistantIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", course.ID).Str("code", course.Code).Msg("Course created")
	return &dto.CourseDetailResponse{CourseResponse: dto.NewCourseResponse(course), Staff: *staff}, nil
}

// Update overwrites a course and reconciles its staff in one transaction
func (s *CourseService) Update(ctx context.Context, id int64, req *dto.CourseRequest) (*dto.CourseDetailResponse, error) {
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	var (
		course *models.Course
		staff  *dto.ReconcileResult
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		course, err = s.repos.Courses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		course.Code = strings.TrimSpace(req.CourseCode)
		course.Name = strings.TrimSpace(req.CourseName)
		course.Semester = req.Semester
		course.AcademicYear = req.AcademicYear
		if err := s.repos.Courses.Update(ctx, course); err != nil {
			return err
		}
		staff, err = s.staff.ApplyStaffAssignments(ctx, id, req.ProfessorIDs, req.AssistantIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.CourseDetailResponse{CourseResponse: dto.NewCourseResponse(course), Staff: *staff}, nil
}

// Delete removes a course after its registrations, exams, enrollments and assignments
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Courses.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Registrations.DeleteByCourse(ctx, id); err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if err := s.repos.Exams.DeleteByCourse(ctx, id); err != nil {
			return fmt.Errorf("failed to delete exams: %w", err)
		}
		if err := s.repos.Enrollments.DeleteByCourse(ctx, id); err != nil {
			return fmt.Errorf("failed to delete enrollments: %w", err)
		}
		if err := s.repos.Assignments.DeleteByCourse(ctx, id); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		return s.repos.Courses.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("courseID", id).Msg("Course deleted")
	return nil
}

// EnrolledStudents returns a course's enrollments with their students
func (s *CourseService) EnrolledStudents(ctx context.Context, id int64) ([]dto.EnrollmentResponse, error) {
	if _, err := s.repos.Courses.GetByID(ctx, id); err != nil {
		return nil, err
	}
	es, err := s.repos.Enrollments.ListByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return dto.NewEnrollmentResponses(es), nil
}

// RemoveEnrollment deletes one enrollment of a course
func (s *CourseService) RemoveEnrollment(ctx context.Context, courseID, enrollmentID int64) error {
	e, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if e.CourseID != courseID {
		return apperrors.ErrEnrollmentNotFound
	}
	return s.repos.Enrollments.Delete(ctx, enrollmentID)
}
