package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/db"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/dberrors"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

// StaffAssignmentRepository handles course_staff_assignments
type StaffAssignmentRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewStaffAssignmentRepository creates a new StaffAssignmentRepository
func NewStaffAssignmentRepository(pool *pgxpool.Pool) *StaffAssignmentRepository {
	return &StaffAssignmentRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an assignment
func (r *StaffAssignmentRepository) Create(ctx context.Context, a *models.CourseStaffAssignment) error {
	sql, args, err := r.sb.Insert("course_staff_assignments").
		Columns("course_id", "user_id", "staff_role").
		Values(a.CourseID, a.UserID, a.StaffRole).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create assignment query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&a.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_assignment_course_user_role") {
			return apperrors.ErrAlreadyAssigned
		}
		logger.Error().Err(err).Int64("courseID", a.CourseID).Int64("userID", a.UserID).Msg("Error creating staff assignment")
		return fmt.Errorf("error creating staff assignment: %w", err)
	}
	return nil
}

// GetByID retrieves an assignment without relations
func (r *StaffAssignmentRepository) GetByID(ctx context.Context, id int64) (*models.CourseStaffAssignment, error) {
	a := &models.CourseStaffAssignment{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, course_id, user_id, staff_role FROM course_staff_assignments WHERE id = $1`, id).
		Scan(&a.ID, &a.CourseID, &a.UserID, &a.StaffRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error retrieving staff assignment: %w", err)
	}
	return a, nil
}

// ListByCourse returns the course's assignments with users attached, in id order
func (r *StaffAssignmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.CourseStaffAssignment, error) {
	cols := []string{"a.id", "a.course_id", "a.user_id", "a.staff_role",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.role_type", "u.is_active"}
	sql, args, err := r.sb.Select(cols...).
		From("course_staff_assignments a").
		Join("users u ON u.id = a.user_id").
		Where(squirrel.Eq{"a.course_id": courseID}).
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list assignments query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing staff assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseStaffAssignment
	for rows.Next() {
		a := &models.CourseStaffAssignment{User: &models.User{}}
		if err := rows.Scan(&a.ID, &a.CourseID, &a.UserID, &a.StaffRole,
			&a.User.ID, &a.User.Email, &a.User.FirstName, &a.User.LastName, &a.User.RoleType, &a.User.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning staff assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByUser returns the user's assignments with courses attached
func (r *StaffAssignmentRepository) ListByUser(ctx context.Context, userID int64) ([]*models.CourseStaffAssignment, error) {
	cols := append([]string{"a.id", "a.course_id", "a.user_id", "a.staff_role"}, courseColumns...)
	sql, args, err := r.sb.Select(cols...).
		From("course_staff_assignments a").
		Join("courses c ON c.id = a.course_id").
		Where(squirrel.Eq{"a.user_id": userID}).
		OrderBy("c.academic_year DESC", "c.code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list user assignments query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing user assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseStaffAssignment
	for rows.Next() {
		a := &models.CourseStaffAssignment{}
		course, err := scanCourse(rows, &a.ID, &a.CourseID, &a.UserID, &a.StaffRole)
		if err != nil {
			return nil, fmt.Errorf("error scanning user assignment: %w", err)
		}
		a.Course = course
		out = append(out, a)
	}
	return out, rows.Err()
}

// IsAssigned reports whether the user holds any role on the course
func (r *StaffAssignmentRepository) IsAssigned(ctx context.Context, courseID, userID int64) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM course_staff_assignments WHERE course_id = $1 AND user_id = $2)`,
		courseID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking staff assignment: %w", err)
	}
	return exists, nil
}

// DeleteByIDs removes the given assignments in one statement
func (r *StaffAssignmentRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	sql, args, err := r.sb.Delete("course_staff_assignments").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete assignments query: %w", err)
	}
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting staff assignments: %w", err)
	}
	return nil
}

// DeleteByCourse removes every assignment of a course
func (r *StaffAssignmentRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM course_staff_assignments WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("error deleting course assignments: %w", err)
	}
	return nil
}

// DeleteByUser removes every assignment held by a user
func (r *StaffAssignmentRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM course_staff_assignments WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting user assignments: %w", err)
	}
	return nil
}
