package ports

import (
	"context"

	"github.com/securedoc/account-service/internal/core/domain"
)

// EventPublisher hands a domain event to its handlers outside the publishing
// transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.UserEvent) error
}

// EventHandler reacts to a published event. Handlers must ignore event types
// they do not know.
type EventHandler interface {
	Handle(ctx context.Context, event domain.UserEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event domain.UserEvent) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event domain.UserEvent) error {
	return f(ctx, event)
}

// Notifier delivers a plain text message. It may fail.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationDedup remembers which notifications were already delivered.
type NotificationDedup interface {
	IsDuplicate(ctx context.Context, kind, key string) (bool, error)
	Mark(ctx context.Context, kind, key string) error
}
