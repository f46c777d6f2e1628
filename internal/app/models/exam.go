package models

import "time"

// DateLayout is the wire format of exam dates
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of exam start and end times
const TimeLayout = "15:04"

// Exam is one exam session of a course
type Exam struct {
	ID                   int64     `json:"id" db:"id" example:"1"`
	CourseID             int64     `json:"courseId" db:"course_id" example:"1"`
	Session              string    `json:"session" db:"session" example:"January 2025"`
	DateOfExam           time.Time `json:"dateOfExam" db:"date_of_exam"`
	CapacityOfStudents   int       `json:"capacityOfStudents" db:"capacity_of_students" example:"120"`
	ReservedLaboratories []string  `json:"reservedLaboratories" db:"reserved_laboratories"`
	StartTime            string    `json:"startTime" db:"start_time" example:"09:00"`
	EndTime              string    `json:"endTime" db:"end_time" example:"11:00"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`

	Course *Course `json:"course,omitempty"`
}

// StudentExamRegistration records a student's status for one exam
type StudentExamRegistration struct {
	ID           int64      `json:"id" db:"id"`
	ExamID       int64      `json:"examId" db:"exam_id"`
	StudentID    int64      `json:"studentId" db:"student_id"`
	ExamStatus   ExamStatus `json:"examStatus" db:"exam_status" example:"REGISTERED"`
	RegisteredAt time.Time  `json:"registeredAt" db:"registered_at"`

	Student *Student `json:"student,omitempty"`
	Exam    *Exam    `json:"exam,omitempty"`
}
