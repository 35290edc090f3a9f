package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
	"github.com/securedoc/account-service/internal/pkg/metrics"
)

const (
	SubjectAccountVerification = "New User Account Verification"
	SubjectPasswordReset       = "Reset Password Request"

	defaultMailTimeout = 10 * time.Second
)

var (
	verificationTemplate = pongo2.Must(pongo2.FromString(`Dear {{ name|safe }},

Welcome to SecureDoc! Your account has been successfully created.

To ensure the security of your account, please verify your email address by clicking the link below:

{{ link|safe }}

If you did not sign up for SecureDoc, please ignore this email. This link will expire in 24 hours for security reasons.

Best regards,
The SecureDoc Team

Need help? Contact us at support@securedoc.com`))

	passwordResetTemplate = pongo2.Must(pongo2.FromString(`Dear {{ name|safe }},

We received a request to reset your password for your SecureDoc account. If this was you, please click the link below to reset your password:

{{ link|safe }}

For security reasons, this link will expire in 24 hours.

If you did not request a password reset, please ignore this email. Your account remains secure.

Best regards,
The SecureDoc Team

Need help? Contact us at support@securedoc.com`))
)

type emailMessage struct {
	subject  string
	path     string
	template *pongo2.Template
}

var emailMessages = map[domain.EventType]emailMessage{
	domain.EventRegistration:  {subject: SubjectAccountVerification, path: ports.VerifyAccountPath, template: verificationTemplate},
	domain.EventPasswordReset: {subject: SubjectPasswordReset, path: ports.PasswordResetPath, template: passwordResetTemplate},
}

// EmailNotificationHandler turns user events into emails. Event types without
// an email are ignored.
type EmailNotificationHandler struct {
	notifier ports.Notifier
	dedup    ports.NotificationDedup
	host     string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewEmailNotificationHandler builds the handler. dedup may be nil, in which
// case every event is delivered.
func NewEmailNotificationHandler(
	notifier ports.Notifier,
	dedup ports.NotificationDedup,
	host string,
	timeout time.Duration,
	log zerolog.Logger,
) *EmailNotificationHandler {
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	return &EmailNotificationHandler{
		notifier: notifier,
		dedup:    dedup,
		host:     strings.TrimRight(host, "/"),
		timeout:  timeout,
		log:      log,
	}
}

// Handle implements ports.EventHandler.
func (h *EmailNotificationHandler) Handle(ctx context.Context, event domain.UserEvent) error {
	msg, ok := emailMessages[event.Type]
	if !ok {
		return nil
	}
	kind, key := string(event.Type), event.Key()

	if h.dedup != nil {
		isDup, err := h.dedup.IsDuplicate(ctx, kind, key)
		if err != nil {
			h.log.Warn().Err(err).Str("event_type", kind).Msg("dedup check failed, sending anyway")
		} else if isDup {
			metrics.NotificationDedupTotal.WithLabelValues("hit").Inc()
			metrics.NotificationsTotal.WithLabelValues(kind, "duplicate").Inc()
			h.log.Debug().Str("event_type", kind).Str("user_id", event.User.UserID).Msg("duplicate notification skipped")
			return nil
		} else {
			metrics.NotificationDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	body, err := msg.template.Execute(pongo2.Context{
		"name": event.User.FirstName,
		"link": h.link(msg.path, key),
	})
	if err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.notifier.Send(sendCtx, event.User.Email, msg.subject, body); err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		h.log.Error().Err(err).
			Str("event_type", kind).
			Str("user_id", event.User.UserID).
			Msg("failed to send notification")
		return fmt.Errorf("%w: %s email: %w", domain.ErrNotificationFailed, kind, err)
	}

	if h.dedup != nil {
		if err := h.dedup.Mark(ctx, kind, key); err != nil {
			h.log.Warn().Err(err).Str("event_type", kind).Msg("failed to set dedup key")
		}
	}

	metrics.NotificationsTotal.WithLabelValues(kind, "sent").Inc()
	h.log.Info().
		Str("event_type", kind).
		Str("user_id", event.User.UserID).
		Msg("notification sent")
	return nil
}

func (h *EmailNotificationHandler) link(path, key string) string {
	return h.host + path + "?key=" + key
}
