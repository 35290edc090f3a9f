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

// RoleRepository implements ports.RoleRepository using bun.
type RoleRepository struct {
	store *Store
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	stamped := *role
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.ID = uuid.NewString()

	m := &roleModel{
		ID:           stamped.ID,
		AuditColumns: toAuditColumns(stamped.Auditable),
		Name:         domain.NormalizeRoleName(stamped.Name),
		Authority:    string(stamped.Authority),
	}
	if _, err := r.store.idb(ctx).NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	role.Auditable = stamped.Auditable
	return nil
}

// FindByName ignores case.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var m roleModel
	err := r.store.idb(ctx).NewSelect().
		Model(&m).
		Where("name = ?", domain.NormalizeRoleName(name)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return m.toDomain(), nil
}
