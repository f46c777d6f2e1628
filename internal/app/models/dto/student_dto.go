package dto

import "github.com/yigit/examadmin/internal/app/models"

// CreateStudentRequest attaches a student profile to an existing STUDENT user
type CreateStudentRequest struct {
	UserID       int64  `json:"userId" binding:"required,gt=0"`
	StudentIndex string `json:"studentIndex" binding:"required,max=30"`
	Major        string `json:"major" binding:"required,max=120"`
}

// UpdateStudentRequest overwrites index and major
type UpdateStudentRequest struct {
	StudentIndex string `json:"studentIndex" binding:"required,max=30"`
	Major        string `json:"major" binding:"required,max=120"`
}

// StudentSummary is a student profile without its user
type StudentSummary struct {
	ID           int64  `json:"id" example:"1"`
	StudentIndex string `json:"studentIndex" example:"221033"`
	Major        string `json:"major" example:"SIIS"`
}

// StudentResponse is a student profile with its owning user
type StudentResponse struct {
	StudentSummary
	UserID int64         `json:"userId" example:"5"`
	User   *UserResponse `json:"user,omitempty"`
}

// NewStudentSummary maps a student model without its user
func NewStudentSummary(s *models.Student) StudentSummary {
	return StudentSummary{ID: s.ID, StudentIndex: s.StudentIndex, Major: s.Major}
}

// NewStudentResponse maps a student model
func NewStudentResponse(s *models.Student) StudentResponse {
	resp := StudentResponse{StudentSummary: NewStudentSummary(s), UserID: s.UserID}
	if s.User != nil {
		u := NewUserResponse(s.User)
		resp.User = &u
	}
	return resp
}

// NewStudentResponses maps a slice of student models
func NewStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}
