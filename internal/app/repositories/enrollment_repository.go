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
)

// EnrollmentRepository handles course_enrollments
type EnrollmentRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an enrollment
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.CourseEnrollment) error {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	sql, args, err := r.sb.Insert("course_enrollments").
		Columns("course_id", "student_id", "enrolled_at").
		Values(e.CourseID, e.StudentID, e.EnrolledAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&e.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_enrollment_course_student") {
			return apperrors.ErrAlreadyEnrolled
		}
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

// GetByID retrieves an enrollment without relations
func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*models.CourseEnrollment, error) {
	e := &models.CourseEnrollment{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, course_id, student_id, enrolled_at FROM course_enrollments WHERE id = $1`, id).
		Scan(&e.ID, &e.CourseID, &e.StudentID, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}
	return e, nil
}

// ListByCourse returns enrollments with students and users attached, in enrollment order
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.CourseEnrollment, error) {
	cols := append([]string{"e.id", "e.course_id", "e.student_id", "e.enrolled_at"}, user.StudentColumns...)
	sql, args, err := r.sb.Select(cols...).
		From("course_enrollments e").
		Join("students s ON s.id = e.student_id").
		Join("users u ON u.id = s.user_id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("e.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseEnrollment
	for rows.Next() {
		e := &models.CourseEnrollment{}
		s, err := user.ScanStudent(rows, &e.ID, &e.CourseID, &e.StudentID, &e.EnrolledAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment: %w", err)
		}
		e.Student = s
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListByStudent returns the student's enrollments with courses attached
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.CourseEnrollment, error) {
	cols := append([]string{"e.id", "e.course_id", "e.student_id", "e.enrolled_at"}, courseColumns...)
	sql, args, err := r.sb.Select(cols...).
		From("course_enrollments e").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"e.student_id": studentID}).
		OrderBy("c.academic_year DESC", "c.code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list student enrollments query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing student enrollments: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseEnrollment
	for rows.Next() {
		e := &models.CourseEnrollment{}
		c, err := scanCourse(rows, &e.ID, &e.CourseID, &e.StudentID, &e.EnrolledAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning student enrollment: %w", err)
		}
		e.Course = c
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes one enrollment
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM course_enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// DeleteByCourse removes every enrollment of a course
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM course_enrollments WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("error deleting course enrollments: %w", err)
	}
	return nil
}

// DeleteByStudent removes every enrollment of a student
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM course_enrollments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("error deleting student enrollments: %w", err)
	}
	return nil
}
