package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
)

// UserService defines the interface for user operations
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error)
	ListByRole(ctx context.Context, role models.RoleType) ([]dto.UserResponse, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, id int64) error
	GetMyProfile(ctx context.Context, userID int64) (*dto.MyProfileResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	tx     Transactor
	repos  Repos
	hasher auth.PasswordHasher
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(tx Transactor, repos Repos, hasher auth.PasswordHasher, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		tx:     tx,
		repos:  repos,
		hasher: hasher,
		logger: logger,
	}
}

// GetUserByID retrieves a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ListUsers returns one page of users ordered by id
func (s *userServiceImpl) ListUsers(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error) {
	users, total, err := s.repos.Users.List(ctx, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &dto.UserListResponse{
		Users:      dto.NewUserResponses(users),
		Pagination: dto.NewPaginationInfo(page.Page, page.Size, total),
	}, nil
}

// ListByRole returns the users holding role
func (s *userServiceImpl) ListByRole(ctx context.Context, role models.RoleType) ([]dto.UserResponse, error) {
	users, err := s.repos.Users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return dto.NewUserResponses(users), nil
}

func (s *userServiceImpl) validate(email, password, firstName, lastName string, passwordRequired bool) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if passwordRequired || password != "" {
		if err := validatePassword(password); err != nil {
			return err
		}
	}
	if err := validateName("firstName", firstName); err != nil {
		return err
	}
	return validateName("lastName", lastName)
}

// CreateUser creates a user with any role. Students get their profile separately.
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role, ok := models.ParseRoleType(req.Role)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := s.validate(email, req.Password, req.FirstName, req.LastName, true); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  role,
		IsActive:  true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User created")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateUser overwrites a user. Moving a user away from STUDENT removes the
// student profile together with its enrollments and registrations.
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role, ok := models.ParseRoleType(req.Role)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := s.validate(email, req.Password, req.FirstName, req.LastName, false); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repos.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		user.Email = email
		user.FirstName = strings.TrimSpace(req.FirstName)
		user.LastName = strings.TrimSpace(req.LastName)
		user.RoleType = role
		if req.Password != "" {
			if user.Password, err = s.hasher.Hash(req.Password); err != nil {
				return fmt.Errorf("error hashing password: %w", err)
			}
		}
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return err
		}

		if role == models.RoleStudent {
			return nil
		}
		profile, err := s.repos.Students.GetByUserID(ctx, id)
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up student profile: %w", err)
		}
		return removeStudentProfile(ctx, s.repos, profile.ID)
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user and everything that references it
func (s *userServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return deleteUserCascade(ctx, s.repos, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Msg("User deleted")
	return nil
}

// deleteUserCascade deletes, in order, the user's reset tokens, refresh tokens,
// staff assignments, student profile with its dependents, and the user row
func deleteUserCascade(ctx context.Context, repos Repos, userID int64) error {
	if _, err := repos.Users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := repos.PasswordResetTokens.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	if err := repos.Tokens.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	if err := repos.Assignments.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete staff assignments: %w", err)
	}

	profile, err := repos.Students.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if err := removeStudentProfile(ctx, repos, profile.ID); err != nil {
			return err
		}
	case !errors.Is(err, apperrors.ErrStudentNotFound):
		return fmt.Errorf("failed to look up student profile: %w", err)
	}

	return repos.Users.Delete(ctx, userID)
}

// GetMyProfile returns the caller's profile with role-specific details
func (s *userServiceImpl) GetMyProfile(ctx context.Context, userID int64) (*dto.MyProfileResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.MyProfileResponse{User: dto.NewUserResponse(user)}

	switch user.RoleType {
	case models.RoleStudent:
		profile, err := s.repos.Students.GetByUserID(ctx, userID)
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return resp, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load student profile: %w", err)
		}
		summary := dto.NewStudentSummary(profile)
		resp.Student = &summary

		enrollments, err := s.repos.Enrollments.ListByStudent(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load enrollments: %w", err)
		}
		resp.Enrollments = dto.NewEnrollmentResponses(enrollments)
	case models.RoleStaff, models.RoleAdministrator:
		assignments, err := s.repos.Assignments.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load assignments: %w", err)
		}
		resp.Assignments = dto.NewAssignmentResponses(assignments)
	}
	return resp, nil
}
