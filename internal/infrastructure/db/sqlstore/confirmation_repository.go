package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/securedoc/account-service/internal/core/domain"
)

// ConfirmationRepository implements ports.ConfirmationRepository using bun.
type ConfirmationRepository struct {
	store *Store
}

func (r *ConfirmationRepository) Create(ctx context.Context, confirmation *domain.Confirmation) error {
	stamped := *confirmation
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.ID = uuid.NewString()

	m := &confirmationModel{
		ID:           stamped.ID,
		AuditColumns: toAuditColumns(stamped.Auditable),
		Key:          stamped.Key,
		UserID:       stamped.UserID,
	}
	if _, err := r.store.idb(ctx).NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	confirmation.Auditable = stamped.Auditable
	return nil
}

func (r *ConfirmationRepository) FindByKey(ctx context.Context, key string) (*domain.Confirmation, error) {
	return r.findOne(ctx, "key", key)
}

func (r *ConfirmationRepository) FindByUserID(ctx context.Context, userID string) (*domain.Confirmation, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *ConfirmationRepository) findOne(ctx context.Context, column, value string) (*domain.Confirmation, error) {
	var m confirmationModel
	err := r.store.idb(ctx).NewSelect().
		Model(&m).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find confirmation: %w", err)
	}
	return m.toDomain(), nil
}

// Delete removes exactly one confirmation or reports ErrTokenNotFound.
func (r *ConfirmationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.store.idb(ctx).NewDelete().
		Model((*confirmationModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete confirmation: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return fmt.Errorf("delete confirmation: %w", err)
	}
	if !ok {
		return domain.ErrTokenNotFound
	}
	return nil
}
