package ports

import (
	"context"

	"github.com/securedoc/account-service/internal/core/domain"
)

// TxManager runs fn inside a single atomic unit. The transaction travels in
// the ctx handed to fn; repositories called with that ctx join it. Any error
// returned by fn rolls every write back.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists users. Create and Update stamp audit metadata and
// fail with domain.ErrIdentityRequired when ctx carries no actor.
type UserRepository interface {
	// Create inserts the user and assigns its ID. A taken email yields
	// domain.ErrDuplicateEmail.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Delete removes the user together with its credential and confirmation.
	Delete(ctx context.Context, id string) error
}

// CredentialRepository persists password hashes, one per user.
type CredentialRepository interface {
	Create(ctx context.Context, credential *domain.Credential) error
	FindByUserID(ctx context.Context, userID string) (*domain.Credential, error)
}

// ConfirmationRepository persists single-use verification tokens.
type ConfirmationRepository interface {
	Create(ctx context.Context, confirmation *domain.Confirmation) error
	FindByKey(ctx context.Context, key string) (*domain.Confirmation, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Confirmation, error)
	// Delete removes the confirmation and fails with domain.ErrTokenNotFound
	// when nothing was removed, which is how concurrent verifications of the
	// same key are told apart.
	Delete(ctx context.Context, id string) error
}

// RoleRepository looks up seeded roles.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	FindByName(ctx context.Context, name string) (*domain.Role, error)
}

// Store groups the repositories that share one transaction manager.
type Store interface {
	TxManager
	Users() UserRepository
	Credentials() CredentialRepository
	Confirmations() ConfirmationRepository
	Roles() RoleRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
