package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
	"github.com/yigit/examadmin/internal/pkg/csvio"
	"github.com/yigit/examadmin/internal/pkg/events"
	"github.com/yigit/examadmin/internal/pkg/filestorage"
	"github.com/yigit/examadmin/internal/pkg/metrics"
)

// CSV headers
var (
	RosterCSVHeader     = []string{"studentIndex", "firstName", "lastName", "major", "email", "academicRole"}
	AttendanceCSVHeader = []string{"studentIndex", "studentMajor", "firstName", "lastName", "examStatus"}
	UsersCSVHeader      = []string{"firstName", "lastName", "email", "password", "academicRole", "studentIndex", "major"}
)

const studentIndexMarker = "studentindex"

// Import kinds used as metric labels
const (
	importKindRoster     = "roster"
	importKindAttendance = "attendance"
	importKindUsers      = "users"
)

// CSVExchangeService imports and exports course rosters, exam attendance and users
type CSVExchangeService struct {
	tx        Transactor
	repos     Repos
	hasher    auth.PasswordHasher
	archive   filestorage.FileStorage
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewCSVExchangeService creates a new CSVExchangeService
func NewCSVExchangeService(
	tx Transactor,
	repos Repos,
	hasher auth.PasswordHasher,
	archive filestorage.FileStorage,
	publisher events.Publisher,
	logger zerolog.Logger,
) *CSVExchangeService {
	if archive == nil {
		archive = filestorage.NopStorage{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CSVExchangeService{
		tx:        tx,
		repos:     repos,
		hasher:    hasher,
		archive:   archive,
		publisher: publisher,
		logger:    logger,
	}
}

// keep stores a copy of an upload; failures are logged and ignored
func (s *CSVExchangeService) keep(category, filename string, content []byte) {
	stored, err := s.archive.SaveUpload(category, filename, content)
	if err != nil {
		s.logger.Warn().Err(err).Str("category", category).Str("filename", filename).Msg("Failed to archive upload")
		return
	}
	if stored != "" {
		s.logger.Debug().Str("stored", stored).Msg("Upload archived")
	}
}

func (s *CSVExchangeService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

// ExportRosterCSV writes the students enrolled in a course, in enrollment order
func (s *CSVExchangeService) ExportRosterCSV(ctx context.Context, courseID int64) ([]byte, error) {
	if _, err := s.repos.Courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	enrollments, err := s.repos.Enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	w := csvio.NewWriter(RosterCSVHeader...)
	for _, e := range enrollments {
		st := e.Student
		if st == nil || st.User == nil {
			continue
		}
		if err := w.Write(st.StudentIndex, st.User.FirstName, st.User.LastName, st.Major, st.User.Email, string(st.User.RoleType)); err != nil {
			return nil, fmt.Errorf("failed to write roster row: %w", err)
		}
	}
	return w.Bytes()
}

// ImportRosterCSV enrolls every student listed by index in the course.
// Students already enrolled are skipped. A blank or unknown index aborts the
// whole import and nothing is enrolled.
func (s *CSVExchangeService) ImportRosterCSV(ctx context.Context, courseID int64, filename string, content []byte) (created int, err error) {
	defer func() {
		metrics.CSVImports.WithLabelValues(importKindRoster, metrics.Outcome(err)).Inc()
	}()

	if _, err := s.repos.Courses.GetByID(ctx, courseID); err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return 0, apperrors.NewValidationError("uploaded file is empty")
	}
	s.keep(filestorage.CategoryRoster, filename, content)

	lines, err := csvio.ReadFirstFields(bytes.NewReader(content), studentIndexMarker)
	if err != nil {
		return 0, err
	}

	skipped := 0
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Enrollments.ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to list enrollments: %w", err)
		}
		enrolled := make(map[int64]struct{}, len(existing))
		for _, e := range existing {
			enrolled[e.StudentID] = struct{}{}
		}

		for _, line := range lines {
			if line.First == "" {
				return apperrors.NewValidationError(fmt.Sprintf("line %d: studentIndex is empty", line.Number))
			}

			student, err := s.repos.Students.GetByIndex(ctx, line.First)
			if err != nil {
				if errors.Is(err, apperrors.ErrStudentNotFound) {
					return apperrors.NewReferenceNotFoundError("Student", line.First)
				}
				return fmt.Errorf("failed to resolve student %s: %w", line.First, err)
			}

			if _, ok := enrolled[student.ID]; ok {
				skipped++
				continue
			}

			if err := s.repos.Enrollments.Create(ctx, &models.CourseEnrollment{CourseID: courseID, StudentID: student.ID}); err != nil {
				return fmt.Errorf("failed to enroll student %s: %w", line.First, err)
			}
			enrolled[student.ID] = struct{}{}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.CSVRows.WithLabelValues(importKindRoster, "created").Add(float64(created))
	metrics.CSVRows.WithLabelValues(importKindRoster, "skipped").Add(float64(skipped))
	s.logger.Info().Int64("courseID", courseID).Int("created", created).Int("skipped", skipped).Msg("Roster imported")
	s.publish(ctx, events.TypeRosterImported, events.RosterImported{CourseID: courseID, Created: created})
	return created, nil
}

// ExportAttendanceCSV writes the registrations of an exam holding status
func (s *CSVExchangeService) ExportAttendanceCSV(ctx context.Context, examID int64, status models.ExamStatus) ([]byte, error) {
	if _, err := s.repos.Exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	regs, err := s.repos.Registrations.ListByExamAndStatus(ctx, examID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	w := csvio.NewWriter(AttendanceCSVHeader...)
	for _, r := range regs {
		st := r.Student
		if st == nil || st.User == nil {
			continue
		}
		if err := w.Write(st.StudentIndex, st.Major, st.User.FirstName, st.User.LastName, string(r.ExamStatus)); err != nil {
			return nil, fmt.Errorf("failed to write attendance row: %w", err)
		}
	}
	return w.Bytes()
}

// ImportAttendanceCSV marks the listed students ATTENDED and every other
// registration still at REGISTERED as ABSENT. Registrations already ATTENDED
// or ABSENT that are not listed are left alone. An empty upload changes nothing.
func (s *CSVExchangeService) ImportAttendanceCSV(ctx context.Context, examID int64, filename string, content []byte) (result *dto.AttendanceImportResult, err error) {
	defer func() {
		metrics.CSVImports.WithLabelValues(importKindAttendance, metrics.Outcome(err)).Inc()
	}()

	if _, err := s.repos.Exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	result = &dto.AttendanceImportResult{Skipped: []int{}, Unmatched: []string{}}
	if len(bytes.TrimSpace(content)) == 0 {
		return result, nil
	}
	s.keep(filestorage.CategoryAttendance, filename, content)

	lines, err := csvio.ReadFirstFields(bytes.NewReader(content), studentIndexMarker)
	if err != nil {
		return nil, err
	}

	attended := make(map[string]struct{}, len(lines))
	var order []string
	for _, line := range lines {
		if line.First == "" {
			result.Skipped = append(result.Skipped, line.Number)
			continue
		}
		result.Consumed++
		if _, ok := attended[line.First]; !ok {
			attended[line.First] = struct{}{}
			order = append(order, line.First)
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		regs, err := s.repos.Registrations.ListByExam(ctx, examID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}

		registered := make(map[string]struct{}, len(regs))
		var changed []*models.StudentExamRegistration
		for _, r := range regs {
			if r.Student == nil {
				continue
			}
			index := r.Student.StudentIndex
			registered[index] = struct{}{}

			_, listed := attended[index]
			switch {
			case listed && r.ExamStatus != models.ExamStatusAttended:
				r.ExamStatus = models.ExamStatusAttended
				changed = append(changed, r)
				result.MarkedAttended++
			case !listed && r.ExamStatus == models.ExamStatusRegistered:
				r.ExamStatus = models.ExamStatusAbsent
				changed = append(changed, r)
				result.MarkedAbsent++
			}
		}

		for _, index := range order {
			if _, ok := registered[index]; !ok {
				result.Unmatched = append(result.Unmatched, index)
			}
		}

		if len(changed) == 0 {
			return nil
		}
		if err := s.repos.Registrations.UpdateStatuses(ctx, changed); err != nil {
			return fmt.Errorf("failed to update registration statuses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CSVRows.WithLabelValues(importKindAttendance, "consumed").Add(float64(result.Consumed))
	metrics.CSVRows.WithLabelValues(importKindAttendance, "skipped").Add(float64(len(result.Skipped)))
	s.logger.Info().
		Int64("examID", examID).
		Int("consumed", result.Consumed).
		Int("attended", result.MarkedAttended).
		Int("absent", result.MarkedAbsent).
		Int("unmatched", len(result.Unmatched)).
		Msg("Attendance imported")
	s.publish(ctx, events.TypeAttendanceImported, events.AttendanceImported{
		ExamID:         examID,
		Consumed:       result.Consumed,
		MarkedAttended: result.MarkedAttended,
		MarkedAbsent:   result.MarkedAbsent,
	})
	return result, nil
}
