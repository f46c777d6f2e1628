package models

import "time"

// Course is unique on (code, semester, academic year)
type Course struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	Code         string    `json:"courseCode" db:"code" example:"VP"`
	Name         string    `json:"courseName" db:"name" example:"Visual Programming"`
	Semester     int       `json:"semester" db:"semester" example:"7"`
	AcademicYear int       `json:"academicYear" db:"academic_year" example:"2025"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// CourseStaffAssignment designates a user as professor or assistant on a course
type CourseStaffAssignment struct {
	ID        int64     `json:"id" db:"id"`
	CourseID  int64     `json:"courseId" db:"course_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	StaffRole StaffRole `json:"staffRole" db:"staff_role" example:"PROFESSOR"`

	User   *User   `json:"user,omitempty"`
	Course *Course `json:"course,omitempty"`
}

// Key identifies the assignment by (user, role) within its course
func (a *CourseStaffAssignment) Key() AssignmentKey {
	return AssignmentKey{UserID: a.UserID, Role: a.StaffRole}
}

// AssignmentKey is the identity of an assignment inside one course
type AssignmentKey struct {
	UserID int64
	Role   StaffRole
}

// CourseEnrollment links a student to a course
type CourseEnrollment struct {
	ID         int64     `json:"id" db:"id"`
	CourseID   int64     `json:"courseId" db:"course_id"`
	StudentID  int64     `json:"studentId" db:"student_id"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`

	Student *Student `json:"student,omitempty"`
	Course  *Course  `json:"course,omitempty"`
}
