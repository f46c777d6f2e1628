package dto

import (
	"time"

	"github.com/yigit/examadmin/internal/app/models"
)

// ExamRequest creates or updates an exam
type ExamRequest struct {
	CourseID             int64    `json:"courseId" binding:"required,gt=0" example:"1"`
	Session              string   `json:"session" binding:"required,max=100" example:"January 2025"`
	DateOfExam           string   `json:"dateOfExam" binding:"required,datetime=2006-01-02" example:"2025-01-20"`
	CapacityOfStudents   int      `json:"capacityOfStudents" binding:"required,min=1" example:"120"`
	ReservedLaboratories []string `json:"reservedLaboratories" binding:"required,min=1,dive,required,max=50"`
	StartTime            string   `json:"startTime" binding:"required,datetime=15:04" example:"09:00"`
	EndTime              string   `json:"endTime" binding:"required,datetime=15:04" example:"11:00"`
}

// ExamResponse represents an exam
type ExamResponse struct {
	ID                   int64           `json:"id" example:"1"`
	CourseID             int64           `json:"courseId" example:"1"`
	Session              string          `json:"session" example:"January 2025"`
	DateOfExam           string          `json:"dateOfExam" example:"2025-01-20"`
	CapacityOfStudents   int             `json:"capacityOfStudents" example:"120"`
	ReservedLaboratories []string        `json:"reservedLaboratories"`
	StartTime            string          `json:"startTime" example:"09:00"`
	EndTime              string          `json:"endTime" example:"11:00"`
	CreatedAt            time.Time       `json:"createdAt"`
	Course               *CourseResponse `json:"course,omitempty"`
}

// NewExamResponse maps an exam model
func NewExamResponse(e *models.Exam) ExamResponse {
	resp := ExamResponse{
		ID:                   e.ID,
		CourseID:             e.CourseID,
		Session:              e.Session,
		DateOfExam:           e.DateOfExam.Format(models.DateLayout),
		CapacityOfStudents:   e.CapacityOfStudents,
		ReservedLaboratories: e.ReservedLaboratories,
		StartTime:            e.StartTime,
		EndTime:              e.EndTime,
		CreatedAt:            e.CreatedAt,
	}
	if resp.ReservedLaboratories == nil {
		resp.ReservedLaboratories = []string{}
	}
	if e.Course != nil {
		c := NewCourseResponse(e.Course)
		resp.Course = &c
	}
	return resp
}

// NewExamResponses maps a slice of exam models
func NewExamResponses(exams []*models.Exam) []ExamResponse {
	out := make([]ExamResponse, 0, len(exams))
	for _, e := range exams {
		out = append(out, NewExamResponse(e))
	}
	return out
}
