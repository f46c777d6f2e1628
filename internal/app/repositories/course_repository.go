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

const courseUniqueConstraint = "uq_course_code_semester_year"

var courseColumns = []string{"c.id", "c.code", "c.name", "c.semester", "c.academic_year", "c.created_at", "c.updated_at"}

func scanCourse(row pgx.Row, extra ...any) (*models.Course, error) {
	c := &models.Course{}
	dest := append(extra, &c.ID, &c.Code, &c.Name, &c.Semester, &c.AcademicYear, &c.CreatedAt, &c.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return c, nil
}

// CourseRepository handles database operations for courses
type CourseRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create creates a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now()
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "name", "semester", "academic_year", "created_at", "updated_at").
		Values(course.Code, course.Name, course.Semester, course.AcademicYear, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&course.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, courseUniqueConstraint) {
			return apperrors.ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error creating course")
		return fmt.Errorf("error creating course: %w", err)
	}
	course.CreatedAt, course.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses c").Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

// List returns all courses, newest academic year first
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses c").
		OrderBy("c.academic_year DESC", "c.semester", "c.code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Update overwrites code, name, semester and academic year
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	now := time.Now()
	sql, args, err := r.sb.Update("courses").
		Set("code", course.Code).
		Set("name", course.Name).
		Set("semester", course.Semester).
		Set("academic_year", course.AcademicYear).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, courseUniqueConstraint) {
			return apperrors.ErrCourseAlreadyExists
		}
		return fmt.Errorf("error updating course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	course.UpdatedAt = now
	return nil
}

// Delete removes the course row; children must be removed first
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}
