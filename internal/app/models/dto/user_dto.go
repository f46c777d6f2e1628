package dto

import (
	"time"

	"github.com/yigit/examadmin/internal/app/models"
)

// UserResponse represents basic user information
type UserResponse struct {
	ID          int64      `json:"id" example:"1"`
	Email       string     `json:"email" example:"ana.petrova@university.edu"`
	FirstName   string     `json:"firstName" example:"Ana"`
	LastName    string     `json:"lastName" example:"Petrova"`
	Role        string     `json:"role" example:"STAFF"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// NewUserResponse maps a user model
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.RoleType),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// NewUserResponses maps a slice of user models
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// CreateUserRequest is the administrative user creation payload
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Role      string `json:"role" binding:"required,oneof=STUDENT STAFF ADMINISTRATOR USER"`
}

// UpdateUserRequest overwrites a user. An empty password keeps the current one.
type UpdateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"omitempty,min=8,max=72"`
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Role      string `json:"role" binding:"required,oneof=STUDENT STAFF ADMINISTRATOR USER"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// MyProfileResponse is the caller's own profile.
// Students get their profile and enrollments, staff get their course assignments.
type MyProfileResponse struct {
	User        UserResponse         `json:"user"`
	Student     *StudentSummary      `json:"student,omitempty"`
	Enrollments []EnrollmentResponse `json:"enrollments,omitempty"`
	Assignments []AssignmentResponse `json:"assignments,omitempty"`
}
