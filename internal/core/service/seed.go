package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
)

// seededAuthorities are created on startup when missing.
var seededAuthorities = []domain.Authority{domain.AuthorityUser, domain.AuthorityAdmin}

// SeedRoles inserts the built-in roles that do not exist yet. It writes as
// domain.SystemActor and is safe to run on every start.
func SeedRoles(ctx context.Context, store ports.Store, log zerolog.Logger) error {
	ctx = domain.WithActor(ctx, domain.SystemActor)

	return store.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, authority := range seededAuthorities {
			_, err := store.Roles().FindByName(ctx, string(authority))
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrRoleNotFound) {
				return fmt.Errorf("seed roles: find %s: %w", authority, err)
			}
			if err := store.Roles().Create(ctx, domain.NewRole(authority)); err != nil {
				return fmt.Errorf("seed roles: create %s: %w", authority, err)
			}
			log.Info().Str("role", string(authority)).Msg("role seeded")
		}
		return nil
	})
}
