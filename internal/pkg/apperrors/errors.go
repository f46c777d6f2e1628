package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrReferenceNotFound     = errors.New("referenced resource not found")
	ErrInvalidState          = errors.New("invalid state")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Entity errors. Each wraps ErrResourceNotFound or ErrConflict so callers can
// match either the specific or the generic kind.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrResourceNotFound)
	ErrStudentNotFound      = fmt.Errorf("student %w", ErrResourceNotFound)
	ErrCourseNotFound       = fmt.Errorf("course %w", ErrResourceNotFound)
	ErrExamNotFound         = fmt.Errorf("exam %w", ErrResourceNotFound)
	ErrRegistrationNotFound = fmt.Errorf("exam registration %w", ErrResourceNotFound)
	ErrEnrollmentNotFound   = fmt.Errorf("course enrollment %w", ErrResourceNotFound)
	ErrAssignmentNotFound   = fmt.Errorf("staff assignment %w", ErrResourceNotFound)

	ErrEmailAlreadyExists        = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrStudentIndexAlreadyExists = fmt.Errorf("student index already exists: %w", ErrConflict)
	ErrCourseAlreadyExists       = fmt.Errorf("course with this code, semester and year already exists: %w", ErrConflict)
	ErrStudentProfileExists      = fmt.Errorf("user already has a student profile: %w", ErrConflict)
	ErrAlreadyRegistered         = fmt.Errorf("student is already registered for this exam: %w", ErrConflict)
	ErrAlreadyEnrolled           = fmt.Errorf("student is already enrolled in this course: %w", ErrConflict)
	ErrAlreadyAssigned           = fmt.Errorf("user already holds this role on the course: %w", ErrConflict)
)

// Password reset errors
var (
	ErrInvalidPasswordResetToken = errors.New("invalid or expired password reset token")
	ErrPasswordResetTokenUsed    = errors.New("password reset token has already been used")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{Err: ErrBadRequest, Message: message}
}

// NewValidationError creates a validation error with a message
func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message}
}

// NewInvalidStateError reports that the caller's own data is inconsistent
func NewInvalidStateError(message string) error {
	return &CustomError{Err: ErrInvalidState, Message: message}
}

// ReferenceNotFoundError reports ids or keys that did not resolve to an entity of Kind
type ReferenceNotFoundError struct {
	Kind string
	Refs []string
}

// NewReferenceNotFoundError creates a ReferenceNotFoundError
func NewReferenceNotFoundError(kind string, refs ...string) *ReferenceNotFoundError {
	return &ReferenceNotFoundError{Kind: kind, Refs: refs}
}

func (e *ReferenceNotFoundError) Error() string {
	if len(e.Refs) == 0 {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, strings.Join(e.Refs, ", "))
}

// Unwrap allows errors.Is(err, ErrReferenceNotFound)
func (e *ReferenceNotFoundError) Unwrap() error {
	return ErrReferenceNotFound
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

// Message returns the most specific human-readable message carried by err
func Message(err error) string {
	var custom *CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	var ref *ReferenceNotFoundError
	if errors.As(err, &ref) {
		return ref.Error()
	}
	return err.Error()
}
