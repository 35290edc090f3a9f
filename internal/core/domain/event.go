package domain

import "time"

// EventType tags what happened to a user.
type EventType string

const (
	EventRegistration    EventType = "registration"
	EventPasswordReset   EventType = "password_reset"
	EventAccountVerified EventType = "account_verified"
)

// EventDataKey is the payload entry carrying the confirmation key.
const EventDataKey = "key"

// UserEvent is an in-process notification about a user. It is never persisted.
type UserEvent struct {
	ID         string
	Type       EventType
	User       User
	Data       map[string]string
	OccurredAt time.Time
}

// Key returns the confirmation key carried by the event, if any.
func (e UserEvent) Key() string {
	return e.Data[EventDataKey]
}
