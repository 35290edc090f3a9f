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

// CredentialRepository implements ports.CredentialRepository using bun.
type CredentialRepository struct {
	store *Store
}

func (r *CredentialRepository) Create(ctx context.Context, credential *domain.Credential) error {
	stamped := *credential
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.ID = uuid.NewString()

	m := &credentialModel{
		ID:           stamped.ID,
		AuditColumns: toAuditColumns(stamped.Auditable),
		UserID:       stamped.UserID,
		PasswordHash: stamped.PasswordHash,
	}
	if _, err := r.store.idb(ctx).NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	credential.Auditable = stamped.Auditable
	return nil
}

func (r *CredentialRepository) FindByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	var m credentialModel
	err := r.store.idb(ctx).NewSelect().Model(&m).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &domain.Credential{
		Auditable:    m.AuditColumns.toDomain(m.ID),
		UserID:       m.UserID,
		PasswordHash: m.PasswordHash,
	}, nil
}
