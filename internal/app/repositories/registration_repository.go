package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/repositories/user"
	"github.com/yigit/examadmin/internal/db"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/dberrors"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

var registrationColumns = []string{"r.id", "r.exam_id", "r.student_id", "r.exam_status", "r.registered_at"}

// RegistrationRepository handles student_exam_registrations
type RegistrationRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a registration
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.StudentExamRegistration) error {
	if reg.ExamStatus == "" {
		reg.ExamStatus = models.ExamStatusRegistered
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	sql, args, err := r.sb.Insert("student_exam_registrations").
		Columns("exam_id", "student_id", "exam_status", "registered_at").
		Values(reg.ExamID, reg.StudentID, reg.ExamStatus, reg.RegisteredAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create registration query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&reg.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_registration_exam_student") {
			return apperrors.ErrAlreadyRegistered
		}
		logger.Error().Err(err).Int64("examID", reg.ExamID).Int64("studentID", reg.StudentID).Msg("Error creating exam registration")
		return fmt.Errorf("error creating exam registration: %w", err)
	}
	return nil
}

// GetByID retrieves a registration without relations
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.StudentExamRegistration, error) {
	reg := &models.StudentExamRegistration{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, exam_id, student_id, exam_status, registered_at FROM student_exam_registrations WHERE id = $1`, id).
		Scan(&reg.ID, &reg.ExamID, &reg.StudentID, &reg.ExamStatus, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error retrieving exam registration: %w", err)
	}
	return reg, nil
}

// Exists reports whether the student is registered for the exam
func (r *RegistrationRepository) Exists(ctx context.Context, examID, studentID int64) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM student_exam_registrations WHERE exam_id = $1 AND student_id = $2)`,
		examID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking exam registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) listWithStudents(ctx context.Context, where squirrel.Sqlizer) ([]*models.StudentExamRegistration, error) {
	cols := append(append([]string{}, registrationColumns...), user.StudentColumns...)
	sql, args, err := r.sb.Select(cols...).
		From("student_exam_registrations r").
		Join("students s ON s.id = r.student_id").
		Join("users u ON u.id = s.user_id").
		Where(where).
		OrderBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list registrations query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing exam registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.StudentExamRegistration
	for rows.Next() {
		reg := &models.StudentExamRegistration{}
		s, err := user.ScanStudent(rows, &reg.ID, &reg.ExamID, &reg.StudentID, &reg.ExamStatus, &reg.RegisteredAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning exam registration: %w", err)
		}
		reg.Student = s
		out = append(out, reg)
	}
	return out, rows.Err()
}

// ListByExam returns every registration of an exam with students attached
func (r *RegistrationRepository) ListByExam(ctx context.Context, examID int64) ([]*models.StudentExamRegistration, error) {
	return r.listWithStudents(ctx, squirrel.Eq{"r.exam_id": examID})
}

// ListByExamAndStatus returns the exam's registrations holding status
func (r *RegistrationRepository) ListByExamAndStatus(ctx context.Context, examID int64, status models.ExamStatus) ([]*models.StudentExamRegistration, error) {
	return r.listWithStudents(ctx, squirrel.Eq{"r.exam_id": examID, "r.exam_status": status})
}

// ListByStudent returns the student's registrations with exams attached
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.StudentExamRegistration, error) {
	cols := append(append([]string{}, registrationColumns...), examColumns...)
	sql, args, err := r.sb.Select(cols...).
		From("student_exam_registrations r").
		Join("exams e ON e.id = r.exam_id").
		Where(squirrel.Eq{"r.student_id": studentID}).
		OrderBy("e.date_of_exam DESC", "e.start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list student registrations query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing student registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.StudentExamRegistration
	for rows.Next() {
		reg := &models.StudentExamRegistration{}
		e, err := scanExam(rows, &reg.ID, &reg.ExamID, &reg.StudentID, &reg.ExamStatus, &reg.RegisteredAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning student registration: %w", err)
		}
		reg.Exam = e
		out = append(out, reg)
	}
	return out, rows.Err()
}

// List returns every registration without relations
func (r *RegistrationRepository) List(ctx context.Context) ([]*models.StudentExamRegistration, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, exam_id, student_id, exam_status, registered_at FROM student_exam_registrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing exam registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.StudentExamRegistration
	for rows.Next() {
		reg := &models.StudentExamRegistration{}
		if err := rows.Scan(&reg.ID, &reg.ExamID, &reg.StudentID, &reg.ExamStatus, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("error scanning exam registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Update overwrites exam, student and status
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.StudentExamRegistration) error {
	sql, args, err := r.sb.Update("student_exam_registrations").
		Set("exam_id", reg.ExamID).
		Set("student_id", reg.StudentID).
		Set("exam_status", reg.ExamStatus).
		Where(squirrel.Eq{"id": reg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update registration query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_registration_exam_student") {
			return apperrors.ErrAlreadyRegistered
		}
		return fmt.Errorf("error updating exam registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// UpdateStatuses writes the status of every given registration in one statement
func (r *RegistrationRepository) UpdateStatuses(ctx context.Context, regs []*models.StudentExamRegistration) error {
	if len(regs) == 0 {
		return nil
	}
	ids := make([]int64, len(regs))
	statuses := make([]string, len(regs))
	for i, reg := range regs {
		ids[i] = reg.ID
		statuses[i] = string(reg.ExamStatus)
	}

	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE student_exam_registrations r
		SET exam_status = v.status
		FROM unnest($1::bigint[], $2::text[]) AS v(id, status)
		WHERE r.id = v.id`, ids, statuses)
	if err != nil {
		logger.Error().Err(err).Int("count", len(regs)).Msg("Error updating registration statuses")
		return fmt.Errorf("error updating registration statuses: %w", err)
	}
	return nil
}

// Delete removes one registration
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM student_exam_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting exam registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// DeleteByExam removes every registration of an exam
func (r *RegistrationRepository) DeleteByExam(ctx context.Context, examID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM student_exam_registrations WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("error deleting exam registrations: %w", err)
	}
	return nil
}

// DeleteByCourse removes the registrations of every exam of a course
func (r *RegistrationRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM student_exam_registrations
		WHERE exam_id IN (SELECT id FROM exams WHERE course_id = $1)`, courseID)
	if err != nil {
		return fmt.Errorf("error deleting course registrations: %w", err)
	}
	return nil
}

// DeleteByStudent removes every registration of a student
func (r *RegistrationRepository) DeleteByStudent(ctx context.Context, studentID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM student_exam_registrations WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("error deleting student registrations: %w", err)
	}
	return nil
}
