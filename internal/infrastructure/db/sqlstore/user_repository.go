package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/securedoc/account-service/internal/core/domain"
)

// UserRepository implements ports.UserRepository using bun.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	stamped := *user
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.ID = uuid.NewString()

	if _, err := r.store.idb(ctx).NewInsert().Model(toUserModel(&stamped)).Exec(ctx); err != nil {
		if uniqueViolationOn(err, "users", "email") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.Auditable = stamped.Auditable
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	stamped := *user
	if err := stamped.StampUpdate(ctx, time.Now()); err != nil {
		return err
	}

	res, err := r.store.idb(ctx).NewUpdate().
		Model(toUserModel(&stamped)).
		ExcludeColumn("id", "reference_id", "created_by", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if uniqueViolationOn(err, "users", "email") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Auditable = stamped.Auditable
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "u.email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var m userModel
	err := r.store.idb(ctx).NewSelect().
		Model(&m).
		Relation("Role").
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

// Delete removes the user. Credentials and confirmations follow through
// ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.store.idb(ctx).NewDelete().
		Model((*userModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}
