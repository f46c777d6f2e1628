package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/validation"
)

func validateEmail(email string) error {
	if !validation.NewStringValidation(email).
		WithMaxLength(validation.EmailMaxLength).
		WithPattern(validation.CompiledPatterns.Email).
		Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid email %q", email))
	}
	return nil
}

func validatePassword(password string) error {
	if !validation.NewStringValidation(password).
		WithMinLength(validation.PasswordMinLength).
		WithMaxLength(validation.PasswordMaxLength).
		Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("password must be %d to %d characters long",
			validation.PasswordMinLength, validation.PasswordMaxLength))
	}
	return nil
}

func validateName(field, value string) error {
	if !validation.NewStringValidation(strings.TrimSpace(value)).WithMaxLength(validation.NameMaxLength).Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is required and at most %d characters", field, validation.NameMaxLength))
	}
	return nil
}

func validateStudentFields(index, major string) error {
	if !validation.NewStringValidation(index).
		WithMaxLength(validation.StudentIndexMaxLength).
		WithPattern(validation.CompiledPatterns.StudentIndex).
		Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid studentIndex %q", index))
	}
	if !validation.NewStringValidation(major).WithMaxLength(validation.MajorMaxLength).Validate() {
		return apperrors.NewValidationError(fmt.Sprintf("major is required and at most %d characters", validation.MajorMaxLength))
	}
	return nil
}

func validateCourse(req *dto.CourseRequest) error {
	if !validation.NewStringValidation(strings.TrimSpace(req.CourseCode)).WithMaxLength(validation.CourseCodeMaxLength).Validate() {
		return apperrors.NewValidationError("courseCode is required and at most 30 characters")
	}
	if !validation.NewStringValidation(strings.TrimSpace(req.CourseName)).WithMaxLength(validation.CourseNameMaxLength).Validate() {
		return apperrors.NewValidationError("courseName is required and at most 200 characters")
	}
	if !validation.NewNumericValidation(req.Semester).WithMin(1).WithMax(12).Validate() {
		return apperrors.NewValidationError("semester must be between 1 and 12")
	}
	if !validation.NewNumericValidation(req.AcademicYear).WithMin(2000).WithMax(2100).Validate() {
		return apperrors.NewValidationError("academicYear must be between 2000 and 2100")
	}
	return nil
}

// buildExam validates req and converts it into an exam model
func buildExam(req *dto.ExamRequest) (*models.Exam, error) {
	if !validation.NewStringValidation(strings.TrimSpace(req.Session)).WithMaxLength(validation.SessionMaxLength).Validate() {
		return nil, apperrors.NewValidationError("session is required and at most 100 characters")
	}
	date, err := time.Parse(models.DateLayout, req.DateOfExam)
	if err != nil {
		return nil, apperrors.NewValidationError("dateOfExam must be formatted as YYYY-MM-DD")
	}
	if !validation.NewNumericValidation(req.CapacityOfStudents).WithMin(1).Validate() {
		return nil, apperrors.NewValidationError("capacityOfStudents must be at least 1")
	}

	labs := make([]string, 0, len(req.ReservedLaboratories))
	for _, lab := range req.ReservedLaboratories {
		lab = strings.TrimSpace(lab)
		if !validation.NewStringValidation(lab).WithMaxLength(validation.LaboratoryMaxLength).Validate() {
			return nil, apperrors.NewValidationError("reservedLaboratories entries must be non-empty and at most 50 characters")
		}
		labs = append(labs, lab)
	}
	if len(labs) == 0 {
		return nil, apperrors.NewValidationError("reservedLaboratories must not be empty")
	}

	start, err := time.Parse(models.TimeLayout, req.StartTime)
	if err != nil {
		return nil, apperrors.NewValidationError("startTime must be formatted as HH:MM")
	}
	end, err := time.Parse(models.TimeLayout, req.EndTime)
	if err != nil {
		return nil, apperrors.NewValidationError("endTime must be formatted as HH:MM")
	}
	if !start.Before(end) {
		return nil, apperrors.NewValidationError("startTime must be before endTime")
	}

	return &models.Exam{
		CourseID:             req.CourseID,
		Session:              strings.TrimSpace(req.Session),
		DateOfExam:           date,
		CapacityOfStudents:   req.CapacityOfStudents,
		ReservedLaboratories: labs,
		StartTime:            start.Format(models.TimeLayout),
		EndTime:              end.Format(models.TimeLayout),
	}, nil
}
