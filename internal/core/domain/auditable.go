package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Auditable carries the bookkeeping every persisted record shares. Stores
// stamp it right before each insert or update, inside the write's transaction;
// business code never touches these fields.
type Auditable struct {
	ID          string    `json:"id"`
	ReferenceID string    `json:"reference_id"`
	CreatedBy   ActorID   `json:"created_by"`
	UpdatedBy   ActorID   `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Audit exposes the embedded metadata so stores can stamp any entity.
func (a *Auditable) Audit() *Auditable { return a }

// AuditableEntity is implemented by every struct embedding Auditable.
type AuditableEntity interface {
	Audit() *Auditable
}

// StampCreate fills creation metadata from the actor in ctx. The record is
// left untouched when no actor is present.
func (a *Auditable) StampCreate(ctx context.Context, now time.Time) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrIdentityRequired
	}
	now = now.UTC()
	a.ReferenceID = uuid.NewString()
	a.CreatedAt = now
	a.CreatedBy = actor
	a.UpdatedAt = now
	a.UpdatedBy = actor
	return nil
}

// StampUpdate refreshes the update metadata. CreatedAt and CreatedBy are
// never modified after the first write.
func (a *Auditable) StampUpdate(ctx context.Context, now time.Time) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrIdentityRequired
	}
	a.UpdatedAt = now.UTC()
	a.UpdatedBy = actor
	return nil
}
