package ports

import (
	"context"

	"github.com/securedoc/account-service/internal/core/domain"
)

// RegisterUserInput is the DTO passed from the transport layer to AccountService.
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// RegistrationResult is returned once the registration transaction committed.
type RegistrationResult struct {
	User            *domain.User
	ConfirmationKey string
}

// AccountService exposes the account lifecycle use cases.
type AccountService interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*RegistrationResult, error)
	VerifyAccount(ctx context.Context, key string) error
}
