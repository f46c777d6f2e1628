package dto

import (
	"time"

	"github.com/yigit/examadmin/internal/app/models"
)

// RegistrationRequest is the administrative create/update payload.
// An empty status defaults to REGISTERED on create.
type RegistrationRequest struct {
	ExamID     int64  `json:"examId" binding:"required,gt=0" example:"1"`
	StudentID  int64  `json:"studentId" binding:"required,gt=0" example:"1"`
	ExamStatus string `json:"examStatus" binding:"omitempty,oneof=REGISTERED ATTENDED ABSENT" example:"REGISTERED"`
}

// RegistrationResponse represents one exam registration
type RegistrationResponse struct {
	ID           int64            `json:"id" example:"1"`
	ExamID       int64            `json:"examId" example:"1"`
	StudentID    int64            `json:"studentId" example:"1"`
	ExamStatus   string           `json:"examStatus" example:"REGISTERED"`
	RegisteredAt time.Time        `json:"registeredAt"`
	Student      *StudentResponse `json:"student,omitempty"`
	Exam         *ExamResponse    `json:"exam,omitempty"`
}

// NewRegistrationResponse maps a registration model
func NewRegistrationResponse(r *models.StudentExamRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:           r.ID,
		ExamID:       r.ExamID,
		StudentID:    r.StudentID,
		ExamStatus:   string(r.ExamStatus),
		RegisteredAt: r.RegisteredAt,
	}
	if r.Student != nil {
		s := NewStudentResponse(r.Student)
		resp.Student = &s
	}
	if r.Exam != nil {
		e := NewExamResponse(r.Exam)
		resp.Exam = &e
	}
	return resp
}

// NewRegistrationResponses maps a slice of registration models
func NewRegistrationResponses(regs []*models.StudentExamRegistration) []RegistrationResponse {
	out := make([]RegistrationResponse, 0, len(regs))
	for _, r := range regs {
		out = append(out, NewRegistrationResponse(r))
	}
	return out
}
