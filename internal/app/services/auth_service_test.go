package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/events"
)

func newAuthService(f *fixture, reset PasswordResetOptions) *AuthService {
	return NewAuthService(f.tx, f.repos, &fakeIssuer{}, plainHasher{}, f.publisher, reset, f.logger)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f, PasswordResetOptions{})
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Email: " New@Uni.edu ", Password: "password1", FirstName: "Ana", LastName: "Petrova",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@uni.edu", resp.User.Email)
	assert.Equal(t, string(models.RoleUser), resp.User.Role)
	assert.Equal(t, "Bearer", resp.Token.TokenType)

	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Email: "new@uni.edu", Password: "password1", FirstName: "Ana", LastName: "Petrova",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "new@uni.edu", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token.RefreshToken)
	assert.NotNil(t, f.store.users[login.User.ID].LastLoginAt)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "new@uni.edu", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@uni.edu", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f, PasswordResetOptions{})
	u := f.addUser("off@uni.edu", models.RoleStaff)
	row := f.store.users[u.ID]
	row.IsActive = false
	f.store.users[u.ID] = row

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "off@uni.edu", Password: "password1"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f, PasswordResetOptions{})
	f.addUser("a@uni.edu", models.RoleStaff)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@uni.edu", Password: "password1"})
	require.NoError(t, err)

	next, err := svc.RefreshToken(ctx, login.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Token.RefreshToken, next.Token.RefreshToken)

	_, err = svc.RefreshToken(ctx, login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	_, err = svc.RefreshToken(ctx, "   ")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f, PasswordResetOptions{TTL: time.Minute, ExposeToken: true})
	now := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	tokens := []string{"first", "second"}
	svc.newToken = func() string {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok
	}
	u := f.addUser("a@uni.edu", models.RoleStaff)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@uni.edu", Password: "password1"})
	require.NoError(t, err)

	resp, err := svc.RequestPasswordReset(ctx, "a@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Token)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, now.Add(time.Minute), *resp.ExpiresAt)

	_, err = svc.RequestPasswordReset(ctx, "a@uni.edu")
	require.NoError(t, err)
	assert.Len(t, f.store.resets, 1)

	require.Len(t, f.publisher.types, 2)
	assert.Equal(t, events.TypePasswordResetRequested, f.publisher.types[1])
	payload := f.publisher.payloads[1].(events.PasswordResetRequested)
	assert.Equal(t, "second", payload.Token)

	err = svc.ConfirmPasswordReset(ctx, &dto.PasswordResetConfirmRequest{Token: "first", NewPassword: "new-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPasswordResetToken)

	err = svc.ConfirmPasswordReset(ctx, &dto.PasswordResetConfirmRequest{Token: "second", NewPassword: "short"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, &dto.PasswordResetConfirmRequest{Token: "second", NewPassword: "new-password"}))
	assert.Equal(t, "hashed:new-password", f.store.users[u.ID].Password)

	_, err = svc.RefreshToken(ctx, login.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	err = svc.ConfirmPasswordReset(ctx, &dto.PasswordResetConfirmRequest{Token: "second", NewPassword: "another-password"})
	assert.ErrorIs(t, err, apperrors.ErrPasswordResetTokenUsed)
}

func TestPasswordResetExpiry(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f, PasswordResetOptions{TTL: time.Minute})
	now := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	svc.newToken = func() string { return "tok" }
	f.addUser("a@uni.edu", models.RoleStaff)
	ctx := context.Background()

	resp, err := svc.RequestPasswordReset(ctx, "a@uni.edu")
	require.NoError(t, err)
	assert.Empty(t, resp.Token)
	assert.Nil(t, resp.ExpiresAt)

	now = now.Add(time.Minute)
	err = svc.ConfirmPasswordReset(ctx, &dto.PasswordResetConfirmRequest{Token: "tok", NewPassword: "new-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPasswordResetToken)
}
