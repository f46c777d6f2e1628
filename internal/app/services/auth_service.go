package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
	"github.com/yigit/examadmin/internal/pkg/events"
)

// DefaultPasswordResetTTL is how long a reset token stays valid
const DefaultPasswordResetTTL = 15 * time.Minute

// TokenIssuer issues access and refresh tokens for a user
type TokenIssuer interface {
	GenerateTokenPair(user *models.User) (*auth.TokenPair, error)
}

// PasswordResetOptions configures the reset flow
type PasswordResetOptions struct {
	TTL time.Duration
	// ExposeToken echoes the token in the API response; development only
	ExposeToken bool
}

// AuthService handles authentication operations
type AuthService struct {
	tx        Transactor
	repos     Repos
	tokens    TokenIssuer
	hasher    auth.PasswordHasher
	publisher events.Publisher
	reset     PasswordResetOptions
	now       Clock
	newToken  TokenGenerator
	logger    zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tx Transactor,
	repos Repos,
	tokens TokenIssuer,
	hasher auth.PasswordHasher,
	publisher events.Publisher,
	reset PasswordResetOptions,
	logger zerolog.Logger,
) *AuthService {
	if reset.TTL <= 0 {
		reset.TTL = DefaultPasswordResetTTL
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AuthService{
		tx:        tx,
		repos:     repos,
		tokens:    tokens,
		hasher:    hasher,
		publisher: publisher,
		reset:     reset,
		now:       time.Now,
		newToken:  DefaultTokenGenerator,
		logger:    logger,
	}
}

// Register creates a USER account and signs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := validateName("firstName", req.FirstName); err != nil {
		return nil, err
	}
	if err := validateName("lastName", req.LastName); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
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
		RoleType:  models.RoleUser,
		IsActive:  true,
	}

	var resp *dto.AuthResponse
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Users.Create(ctx, user); err != nil {
			return err
		}
		var err error
		resp, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("User registered")
	return resp, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Check(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.repos.Users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login time")
	}
	return s.issueTokens(ctx, user)
}

// RefreshToken rotates a refresh token: the old one is revoked and a new pair issued
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	var resp *dto.AuthResponse
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		userID, _, err := s.repos.Tokens.GetTokenByValue(ctx, refreshToken)
		if err != nil {
			return err
		}

		user, err := s.repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return apperrors.ErrAccountDisabled
		}

		if err := s.repos.Tokens.RevokeToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke old token: %w", err)
		}

		resp, err = s.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	if err := s.repos.Tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(pair.ExpiresIn),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// RequestPasswordReset replaces the user's reset tokens with a fresh one and
// publishes an event that sends it by mail
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*dto.PasswordResetResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token := &models.PasswordResetToken{
		Token:     s.newToken(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.reset.TTL),
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.PasswordResetTokens.DeleteByUserID(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to delete old reset tokens: %w", err)
		}
		return s.repos.PasswordResetTokens.Create(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.TypePasswordResetRequested, events.PasswordResetRequested{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to publish password reset event")
	}
	s.logger.Info().Int64("userID", user.ID).Time("expiresAt", token.ExpiresAt).Msg("Password reset requested")

	resp := &dto.PasswordResetResponse{Message: "Password reset instructions have been sent"}
	if s.reset.ExposeToken {
		resp.Token = token.Token
		resp.ExpiresAt = &token.ExpiresAt
	}
	return resp, nil
}

// ConfirmPasswordReset sets a new password, consumes the token and signs the
// user out of every session
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *dto.PasswordResetConfirmRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		token, err := s.repos.PasswordResetTokens.GetByToken(ctx, req.Token)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenNotFound) {
				return apperrors.ErrInvalidPasswordResetToken
			}
			return err
		}
		if token.Used {
			return apperrors.ErrPasswordResetTokenUsed
		}
		if token.IsExpired(s.now()) {
			return apperrors.ErrInvalidPasswordResetToken
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		if err := s.repos.Users.UpdatePassword(ctx, token.UserID, hash); err != nil {
			return err
		}
		if err := s.repos.PasswordResetTokens.MarkUsed(ctx, token.ID); err != nil {
			return fmt.Errorf("failed to mark reset token used: %w", err)
		}
		if err := s.repos.Tokens.RevokeAllUserTokens(ctx, token.UserID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}

		s.logger.Info().Int64("userID", token.UserID).Msg("Password reset completed")
		return nil
	})
}
