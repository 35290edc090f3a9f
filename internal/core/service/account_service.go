package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
	"github.com/securedoc/account-service/internal/pkg/metrics"
)

// DefaultConfirmationTTL matches the validity promised in the verification email.
const DefaultConfirmationTTL = 24 * time.Hour

type accountService struct {
	store     ports.Store
	publisher ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
	ttl       time.Duration
	newKey    func() (string, error)
}

// Option customises the account service.
type Option func(*accountService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *accountService) { s.now = now }
}

// WithConfirmationTTL sets how long a confirmation key stays valid.
// Zero or negative disables expiry.
func WithConfirmationTTL(ttl time.Duration) Option {
	return func(s *accountService) { s.ttl = ttl }
}

// WithKeyGenerator replaces the confirmation key source.
func WithKeyGenerator(gen func() (string, error)) Option {
	return func(s *accountService) { s.newKey = gen }
}

// NewAccountService returns an AccountService implementation.
func NewAccountService(
	store ports.Store,
	publisher ports.EventPublisher,
	log zerolog.Logger,
	opts ...Option,
) ports.AccountService {
	s := &accountService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		ttl:       DefaultConfirmationTTL,
		newKey:    NewConfirmationKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser creates a disabled user with its credential and confirmation
// in one transaction, then announces the registration.
func (s *accountService) RegisterUser(ctx context.Context, in ports.RegisterUserInput) (*ports.RegistrationResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("register user: %w: first name, last name, email and password are required", domain.ErrInvalidInput)
	}
	if _, ok := domain.ActorFromContext(ctx); !ok {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register user: %w", domain.ErrIdentityRequired)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("register user: %w: password too long", domain.ErrInvalidInput)
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register user: hash password: %w", err)
	}

	var (
		user *domain.User
		key  string
	)
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		role, err := s.store.Roles().FindByName(ctx, string(domain.AuthorityUser))
		if err != nil {
			return err
		}

		now := s.now().UTC()
		user = &domain.User{
			UserID:            uuid.NewString(),
			FirstName:         in.FirstName,
			LastName:          in.LastName,
			Email:             in.Email,
			ProfileImageURL:   domain.DefaultProfileImageURL,
			LastLoginAt:       &now,
			AccountNonExpired: true,
			AccountNonLocked:  true,
			RoleID:            role.ID,
			Role:              role,
		}
		if err := s.store.Users().Create(ctx, user); err != nil {
			return err
		}

		credential := &domain.Credential{UserID: user.ID, PasswordHash: string(hash)}
		if err := s.store.Credentials().Create(ctx, credential); err != nil {
			return err
		}

		key, err = s.newKey()
		if err != nil {
			return err
		}
		return s.store.Confirmations().Create(ctx, &domain.Confirmation{Key: key, UserID: user.ID})
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Str("user_id", user.UserID).
		Str("email", user.Email).
		Msg("user registered")

	s.publish(ctx, domain.UserEvent{
		Type: domain.EventRegistration,
		User: *user,
		Data: map[string]string{domain.EventDataKey: key},
	})

	return &ports.RegistrationResult{User: user, ConfirmationKey: key}, nil
}

// VerifyAccount enables the user owning key and consumes the key.
func (s *accountService) VerifyAccount(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		metrics.VerificationsTotal.WithLabelValues("not_found").Inc()
		return fmt.Errorf("verify account: %w", domain.ErrTokenNotFound)
	}

	var user *domain.User
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		confirmation, err := s.store.Confirmations().FindByKey(ctx, key)
		if err != nil {
			return err
		}
		if confirmation.Expired(s.now(), s.ttl) {
			return domain.ErrTokenExpired
		}

		user, err = s.store.Users().FindByID(ctx, confirmation.UserID)
		if err != nil {
			return err
		}
		user.Enabled = true
		if err := s.store.Users().Update(ctx, user); err != nil {
			return err
		}

		// A concurrent verification that already consumed the key makes this
		// fail and rolls the update back.
		return s.store.Confirmations().Delete(ctx, confirmation.ID)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenNotFound):
			metrics.VerificationsTotal.WithLabelValues("not_found").Inc()
		case errors.Is(err, domain.ErrTokenExpired):
			metrics.VerificationsTotal.WithLabelValues("expired").Inc()
		default:
			metrics.VerificationsTotal.WithLabelValues("error").Inc()
		}
		return fmt.Errorf("verify account: %w", err)
	}

	metrics.VerificationsTotal.WithLabelValues("verified").Inc()
	s.log.Info().Str("user_id", user.UserID).Msg("account verified")

	s.publish(ctx, domain.UserEvent{Type: domain.EventAccountVerified, User: *user})
	return nil
}

// publish runs after commit. A failure here cannot undo the committed write,
// so it is only logged.
func (s *accountService) publish(ctx context.Context, event domain.UserEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("user_id", event.User.UserID).
			Msg("failed to publish user event")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
