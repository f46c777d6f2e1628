package models

import "strings"

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent       RoleType = "STUDENT"
	RoleStaff         RoleType = "STAFF"
	RoleAdministrator RoleType = "ADMINISTRATOR"
	RoleUser          RoleType = "USER"
)

// ParseRoleType parses a role name case-insensitively
func ParseRoleType(s string) (RoleType, bool) {
	switch r := RoleType(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleStudent, RoleStaff, RoleAdministrator, RoleUser:
		return r, true
	}
	return "", false
}

// StaffRole is the role a staff member holds on a course
type StaffRole string

const (
	StaffRoleProfessor StaffRole = "PROFESSOR"
	StaffRoleAssistant StaffRole = "ASSISTANT"
)

// ExamStatus classifies a student's participation in an exam
type ExamStatus string

const (
	ExamStatusRegistered ExamStatus = "REGISTERED"
	ExamStatusAttended   ExamStatus = "ATTENDED"
	ExamStatusAbsent     ExamStatus = "ABSENT"
)

// ParseExamStatus parses an exam status case-insensitively
func ParseExamStatus(s string) (ExamStatus, bool) {
	switch st := ExamStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ExamStatusRegistered, ExamStatusAttended, ExamStatusAbsent:
		return st, true
	}
	return "", false
}
