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
	"github.com/yigit/examadmin/internal/db"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/dberrors"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

// Times are stored as TIME and read back as HH:MM text
var examColumns = []string{
	"e.id", "e.course_id", "e.session", "e.date_of_exam", "e.capacity_of_students",
	"e.reserved_laboratories", "to_char(e.start_time, 'HH24:MI')", "to_char(e.end_time, 'HH24:MI')", "e.created_at",
}

func scanExam(row pgx.Row, extra ...any) (*models.Exam, error) {
	e := &models.Exam{}
	dest := append(extra, &e.ID, &e.CourseID, &e.Session, &e.DateOfExam, &e.CapacityOfStudents,
		&e.ReservedLaboratories, &e.StartTime, &e.EndTime, &e.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

// ExamRepository handles database operations for exams
type ExamRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an exam
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("exams").
		Columns("course_id", "session", "date_of_exam", "capacity_of_students",
			"reserved_laboratories", "start_time", "end_time", "created_at").
		Values(exam.CourseID, exam.Session, exam.DateOfExam, exam.CapacityOfStudents,
			exam.ReservedLaboratories,
			squirrel.Expr("CAST(? AS TIME)", exam.StartTime),
			squirrel.Expr("CAST(? AS TIME)", exam.EndTime),
			now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create exam query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&exam.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", exam.CourseID).Msg("Error creating exam")
		return fmt.Errorf("error creating exam: %w", err)
	}
	exam.CreatedAt = now
	return nil
}

func (r *ExamRepository) baseSelect() squirrel.SelectBuilder {
	return r.sb.Select(append(append([]string{}, examColumns...), courseColumns...)...).
		From("exams e").
		Join("courses c ON c.id = e.course_id")
}

func (r *ExamRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Exam, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list exams query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing exams: %w", err)
	}
	defer rows.Close()

	var exams []*models.Exam
	for rows.Next() {
		e, err := scanExamWithCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning exam row: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func scanExamWithCourse(row pgx.Row) (*models.Exam, error) {
	e := &models.Exam{}
	c := &models.Course{}
	err := row.Scan(&e.ID, &e.CourseID, &e.Session, &e.DateOfExam, &e.CapacityOfStudents,
		&e.ReservedLaboratories, &e.StartTime, &e.EndTime, &e.CreatedAt,
		&c.ID, &c.Code, &c.Name, &c.Semester, &c.AcademicYear, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Course = c
	return e, nil
}

// GetByID retrieves an exam with its course
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	sql, args, err := r.baseSelect().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get exam query: %w", err)
	}

	e, err := scanExamWithCourse(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrExamNotFound
		}
		return nil, fmt.Errorf("error retrieving exam: %w", err)
	}
	return e, nil
}

// List returns every exam, latest date first and earliest start within a day
func (r *ExamRepository) List(ctx context.Context) ([]*models.Exam, error) {
	return r.list(ctx, r.baseSelect().OrderBy("e.date_of_exam DESC", "e.start_time ASC", "e.id"))
}

// ListByCourse returns the exams of one course
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Exam, error) {
	return r.list(ctx, r.baseSelect().
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("e.date_of_exam DESC", "e.start_time ASC", "e.id"))
}

// ListByCourseIDs returns the exams of any of the given courses
func (r *ExamRepository) ListByCourseIDs(ctx context.Context, courseIDs []int64) ([]*models.Exam, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, r.baseSelect().
		Where(squirrel.Eq{"e.course_id": courseIDs}).
		OrderBy("e.date_of_exam DESC", "e.start_time ASC", "e.id"))
}

// Update overwrites every mutable exam column
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	sql, args, err := r.sb.Update("exams").
		Set("course_id", exam.CourseID).
		Set("session", exam.Session).
		Set("date_of_exam", exam.DateOfExam).
		Set("capacity_of_students", exam.CapacityOfStudents).
		Set("reserved_laboratories", exam.ReservedLaboratories).
		Set("start_time", squirrel.Expr("CAST(? AS TIME)", exam.StartTime)).
		Set("end_time", squirrel.Expr("CAST(? AS TIME)", exam.EndTime)).
		Where(squirrel.Eq{"id": exam.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update exam query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		return fmt.Errorf("error updating exam: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrExamNotFound
	}
	return nil
}

// Delete removes the exam row; registrations must be removed first
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting exam: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrExamNotFound
	}
	return nil
}

// DeleteByCourse removes every exam of a course
func (r *ExamRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM exams WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("error deleting course exams: %w", err)
	}
	return nil
}
