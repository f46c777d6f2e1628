package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/repositories"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/metrics"
)

// StaffAssignmentService keeps a course's staff assignments in line with a desired set
type StaffAssignmentService struct {
	tx          Transactor
	userRepo    repositories.IUserRepository
	courseRepo  repositories.ICourseRepository
	assignments repositories.IStaffAssignmentRepository
	logger      zerolog.Logger
}

// NewStaffAssignmentService creates a new StaffAssignmentService
func NewStaffAssignmentService(tx Transactor, repos Repos, logger zerolog.Logger) *StaffAssignmentService {
	return &StaffAssignmentService{
		tx:          tx,
		userRepo:    repos.Users,
		courseRepo:  repos.Courses,
		assignments: repos.Assignments,
		logger:      logger,
	}
}

// dedupe drops repeated ids while keeping first-seen order
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ApplyStaffAssignments replaces the course's staff with professorIDs and assistantIDs.
// Assignments already matching a desired (user, role) pair are kept with their ids,
// the rest are deleted and missing pairs are created. Every referenced user must
// exist, otherwise nothing is written.
func (s *StaffAssignmentService) ApplyStaffAssignments(ctx context.Context, courseID int64, professorIDs, assistantIDs []int64) (*dto.ReconcileResult, error) {
	professorIDs = dedupe(professorIDs)
	assistantIDs = dedupe(assistantIDs)

	desired := make([]models.AssignmentKey, 0, len(professorIDs)+len(assistantIDs))
	for _, id := range professorIDs {
		desired = append(desired, models.AssignmentKey{UserID: id, Role: models.StaffRoleProfessor})
	}
	for _, id := range assistantIDs {
		desired = append(desired, models.AssignmentKey{UserID: id, Role: models.StaffRoleAssistant})
	}

	var result *dto.ReconcileResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
			return err
		}

		usersByID, err := s.resolveUsers(ctx, dedupe(append(append([]int64{}, professorIDs...), assistantIDs...)))
		if err != nil {
			return err
		}

		existing, err := s.assignments.ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to load assignments: %w", err)
		}

		toCreate := make(map[models.AssignmentKey]struct{}, len(desired))
		for _, k := range desired {
			toCreate[k] = struct{}{}
		}

		var (
			kept     []*models.CourseStaffAssignment
			obsolete []int64
		)
		for _, a := range existing {
			key := a.Key()
			if _, ok := toCreate[key]; ok {
				delete(toCreate, key)
				kept = append(kept, a)
				continue
			}
			obsolete = append(obsolete, a.ID)
		}

		if len(obsolete) > 0 {
			if err := s.assignments.DeleteByIDs(ctx, obsolete); err != nil {
				return fmt.Errorf("failed to delete assignments: %w", err)
			}
		}

		final := append([]*models.CourseStaffAssignment{}, kept...)
		created := 0
		for _, k := range desired {
			if _, ok := toCreate[k]; !ok {
				continue
			}
			delete(toCreate, k)

			a := &models.CourseStaffAssignment{CourseID: courseID, UserID: k.UserID, StaffRole: k.Role}
			if err := s.assignments.Create(ctx, a); err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
			a.User = usersByID[k.UserID]
			final = append(final, a)
			created++
		}

		result = &dto.ReconcileResult{
			Assignments: dto.NewAssignmentResponses(final),
			Created:     created,
			Deleted:     len(obsolete),
			Kept:        len(kept),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AssignmentChanges.WithLabelValues("create").Add(float64(result.Created))
	metrics.AssignmentChanges.WithLabelValues("delete").Add(float64(result.Deleted))
	s.logger.Info().
		Int64("courseID", courseID).
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("kept", result.Kept).
		Msg("Staff assignments reconciled")
	return result, nil
}

// resolveUsers loads ids in one query and fails with the ids that did not resolve
func (s *StaffAssignmentService) resolveUsers(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	usersByID := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return usersByID, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		usersByID[u.ID] = u
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := usersByID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewReferenceNotFoundError("User", idsToStrings(missing)...)
	}
	return usersByID, nil
}

// ListByCourse returns the staff assigned to a course
func (s *StaffAssignmentService) ListByCourse(ctx context.Context, courseID int64) ([]dto.AssignmentResponse, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	as, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return dto.NewAssignmentResponses(as), nil
}

// ListByUser returns the courses a user is assigned to
func (s *StaffAssignmentService) ListByUser(ctx context.Context, userID int64) ([]dto.AssignmentResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	as, err := s.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return dto.NewAssignmentResponses(as), nil
}

// Remove deletes one assignment of a course
func (s *StaffAssignmentService) Remove(ctx context.Context, courseID, assignmentID int64) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.CourseID != courseID {
		return apperrors.ErrAssignmentNotFound
	}
	if err := s.assignments.DeleteByIDs(ctx, []int64{assignmentID}); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	metrics.AssignmentChanges.WithLabelValues("delete").Inc()
	return nil
}
