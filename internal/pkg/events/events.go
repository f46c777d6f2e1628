// Package events publishes domain events to RabbitMQ and consumes them in the worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types
const (
	TypePasswordResetRequested = "user.password_reset_requested"
	TypeUsersImported          = "user.imported"
	TypeRosterImported         = "course.roster_imported"
	TypeAttendanceImported     = "exam.attendance_imported"
	TypeStudentRegistered      = "exam.student_registered"
)

// Envelope is the wire form of every event
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into a fresh envelope
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}, nil
}

// PasswordResetRequested is emitted when a reset token is issued
type PasswordResetRequested struct {
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UsersImported summarises a user CSV import
type UsersImported struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// RosterImported summarises a course roster import
type RosterImported struct {
	CourseID int64 `json:"courseId"`
	Created  int   `json:"created"`
}

// AttendanceImported summarises an attendance import
type AttendanceImported struct {
	ExamID         int64 `json:"examId"`
	Consumed       int   `json:"consumed"`
	MarkedAttended int   `json:"markedAttended"`
	MarkedAbsent   int   `json:"markedAbsent"`
}

// StudentRegistered is emitted when a student registers for an exam
type StudentRegistered struct {
	RegistrationID int64 `json:"registrationId"`
	ExamID         int64 `json:"examId"`
	StudentID      int64 `json:"studentId"`
}

// Publisher publishes domain events. Failures are reported but callers
// treat publishing as best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// Handler processes one delivered event
type Handler func(ctx context.Context, env Envelope) error

// NoopPublisher drops every event
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// Close implements Publisher
func (NoopPublisher) Close() error { return nil }

// InlinePublisher dispatches events synchronously to in-process handlers.
// It stands in for the broker when RabbitMQ is disabled.
type InlinePublisher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewInlinePublisher creates an InlinePublisher
func NewInlinePublisher(logger zerolog.Logger) *InlinePublisher {
	return &InlinePublisher{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for eventType
func (p *InlinePublisher) Subscribe(eventType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], h)
}

// Publish implements Publisher
func (p *InlinePublisher) Publish(ctx context.Context, eventType string, payload any) error {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}

	p.mu.RLock()
	handlers := p.handlers[eventType]
	p.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, env); err != nil {
			p.logger.Error().Err(err).Str("type", eventType).Msg("Inline event handler failed")
			return err
		}
	}
	return nil
}

// Close implements Publisher
func (p *InlinePublisher) Close() error { return nil }
