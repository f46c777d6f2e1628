package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Email       string     `json:"email" db:"email" example:"student@university.edu"`
	Password    string     `json:"-" db:"password"` // bcrypt hash
	FirstName   string     `json:"firstName" db:"first_name" example:"Ana"`
	LastName    string     `json:"lastName" db:"last_name" example:"Petrova"`
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	// Populated by queries that join students
	Student *Student `json:"student,omitempty"`
}

// IsStaffOrAdmin reports whether the user may manage course data
func (u *User) IsStaffOrAdmin() bool {
	return u.RoleType == RoleStaff || u.RoleType == RoleAdministrator
}

// PasswordResetToken is a single-use token issued by the reset flow
type PasswordResetToken struct {
	ID        int64     `json:"id" db:"id"`
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"userId" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IsExpired reports whether the token is past its expiry at now
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
