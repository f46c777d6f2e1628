package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yigit/examadmin/internal/pkg/email"
)

// PasswordResetMailer returns a Handler that sends the reset mail for
// TypePasswordResetRequested events
func PasswordResetMailer(sender email.EmailService) Handler {
	return func(_ context.Context, env Envelope) error {
		var ev PasswordResetRequested
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("decode password reset event: %w", err)
		}
		return sender.SendPasswordResetEmail(ev.Email, ev.FirstName, ev.Token, ev.ExpiresAt)
	}
}
