package dto

import (
	"time"

	"github.com/yigit/examadmin/internal/app/models"
)

// CourseRequest creates or updates a course together with its staff
type CourseRequest struct {
	CourseCode   string  `json:"courseCode" binding:"required,max=30" example:"VP"`
	CourseName   string  `json:"courseName" binding:"required,max=200" example:"Visual Programming"`
	Semester     int     `json:"semester" binding:"required,min=1,max=12" example:"7"`
	AcademicYear int     `json:"academicYear" binding:"required,min=2000,max=2100" example:"2025"`
	ProfessorIDs []int64 `json:"professorIds" binding:"omitempty,dive,gt=0"`
	AssistantIDs []int64 `json:"assistantIds" binding:"omitempty,dive,gt=0"`
}

// CourseResponse represents a course
type CourseResponse struct {
	ID           int64     `json:"id" example:"1"`
	CourseCode   string    `json:"courseCode" example:"VP"`
	CourseName   string    `json:"courseName" example:"Visual Programming"`
	Semester     int       `json:"semester" example:"7"`
	AcademicYear int       `json:"academicYear" example:"2025"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewCourseResponse maps a course model
func NewCourseResponse(c *models.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		CourseCode:   c.Code,
		CourseName:   c.Name,
		Semester:     c.Semester,
		AcademicYear: c.AcademicYear,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// NewCourseResponses maps a slice of course models
func NewCourseResponses(courses []*models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}

// AssignmentResponse represents one staff assignment
type AssignmentResponse struct {
	ID        int64           `json:"id" example:"3"`
	CourseID  int64           `json:"courseId" example:"1"`
	UserID    int64           `json:"userId" example:"2"`
	StaffRole string          `json:"staffRole" example:"PROFESSOR"`
	User      *UserResponse   `json:"user,omitempty"`
	Course    *CourseResponse `json:"course,omitempty"`
}

// NewAssignmentResponse maps an assignment model
func NewAssignmentResponse(a *models.CourseStaffAssignment) AssignmentResponse {
	resp := AssignmentResponse{ID: a.ID, CourseID: a.CourseID, UserID: a.UserID, StaffRole: string(a.StaffRole)}
	if a.User != nil {
		u := NewUserResponse(a.User)
		resp.User = &u
	}
	if a.Course != nil {
		c := NewCourseResponse(a.Course)
		resp.Course = &c
	}
	return resp
}

// NewAssignmentResponses maps a slice of assignment models
func NewAssignmentResponses(as []*models.CourseStaffAssignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, NewAssignmentResponse(a))
	}
	return out
}

// ReconcileResult reports what a staff reconciliation changed
type ReconcileResult struct {
	Assignments []AssignmentResponse `json:"assignments"`
	Created     int                  `json:"created" example:"1"`
	Deleted     int                  `json:"deleted" example:"1"`
	Kept        int                  `json:"kept" example:"2"`
}

// CourseDetailResponse is a course with its staff after a create or update
type CourseDetailResponse struct {
	CourseResponse
	Staff ReconcileResult `json:"staff"`
}

// EnrollmentResponse represents one course enrollment
type EnrollmentResponse struct {
	ID         int64            `json:"id" example:"4"`
	CourseID   int64            `json:"courseId" example:"1"`
	StudentID  int64            `json:"studentId" example:"1"`
	EnrolledAt time.Time        `json:"enrolledAt"`
	Student    *StudentResponse `json:"student,omitempty"`
	Course     *CourseResponse  `json:"course,omitempty"`
}

// NewEnrollmentResponse maps an enrollment model
func NewEnrollmentResponse(e *models.CourseEnrollment) EnrollmentResponse {
	resp := EnrollmentResponse{ID: e.ID, CourseID: e.CourseID, StudentID: e.StudentID, EnrolledAt: e.EnrolledAt}
	if e.Student != nil {
		s := NewStudentResponse(e.Student)
		resp.Student = &s
	}
	if e.Course != nil {
		c := NewCourseResponse(e.Course)
		resp.Course = &c
	}
	return resp
}

// NewEnrollmentResponses maps a slice of enrollment models
func NewEnrollmentResponses(es []*models.CourseEnrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(es))
	for _, e := range es {
		out = append(out, NewEnrollmentResponse(e))
	}
	return out
}
