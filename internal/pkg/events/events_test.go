package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeRosterImported, RosterImported{CourseID: 3, Created: 2})
	require.NoError(t, err)

	assert.Equal(t, TypeRosterImported, env.Type)
	assert.NotEmpty(t, env.ID)
	assert.WithinDuration(t, time.Now().UTC(), env.OccurredAt, time.Minute)

	var payload RosterImported
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, RosterImported{CourseID: 3, Created: 2}, payload)
}

func TestInlinePublisherDispatchesToSubscribers(t *testing.T) {
	p := NewInlinePublisher(zerolog.Nop())

	var got []PasswordResetRequested
	p.Subscribe(TypePasswordResetRequested, func(_ context.Context, env Envelope) error {
		var ev PasswordResetRequested
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return err
		}
		got = append(got, ev)
		return nil
	})

	require.NoError(t, p.Publish(context.Background(), TypePasswordResetRequested,
		PasswordResetRequested{UserID: 1, Email: "a@uni.edu", Token: "tok"}))
	require.NoError(t, p.Publish(context.Background(), TypeUsersImported, UsersImported{Created: 1}))

	require.Len(t, got, 1)
	assert.Equal(t, "tok", got[0].Token)
}

func TestInlinePublisherReturnsHandlerError(t *testing.T) {
	p := NewInlinePublisher(zerolog.Nop())
	boom := errors.New("smtp down")
	p.Subscribe(TypePasswordResetRequested, func(context.Context, Envelope) error { return boom })

	err := p.Publish(context.Background(), TypePasswordResetRequested, PasswordResetRequested{})
	assert.ErrorIs(t, err, boom)
}

func TestConsumerDispatch(t *testing.T) {
	c := &Consumer{Logger: zerolog.Nop()}
	called := 0
	c.Handle(TypeStudentRegistered, func(context.Context, Envelope) error {
		called++
		return nil
	})

	env, err := NewEnvelope(TypeStudentRegistered, StudentRegistered{ExamID: 1})
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, c.dispatch(context.Background(), body))
	assert.Equal(t, 1, called)

	other, err := NewEnvelope(TypeUsersImported, UsersImported{})
	require.NoError(t, err)
	body, err = json.Marshal(other)
	require.NoError(t, err)
	require.NoError(t, c.dispatch(context.Background(), body))
	assert.Equal(t, 1, called)

	assert.Error(t, c.dispatch(context.Background(), []byte("{not json")))
}
