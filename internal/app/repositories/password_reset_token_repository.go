package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/db"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(pool *pgxpool.Pool) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{pool: pool}
}

// Create stores a new password reset token
func (r *PasswordResetTokenRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.UserID, t.Token, t.ExpiresAt, t.Used, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("error creating password reset token: %w", err)
	}
	return nil
}

// GetByToken retrieves a token by its value
func (r *PasswordResetTokenRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, token, user_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving password reset token: %w", err)
	}
	return t, nil
}

// MarkUsed marks a token as used to prevent reuse
func (r *PasswordResetTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	result, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE password_reset_tokens SET used = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error marking token as used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// DeleteByUserID removes all tokens for a specific user
func (r *PasswordResetTokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting password reset tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired tokens
func (r *PasswordResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired password reset tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
