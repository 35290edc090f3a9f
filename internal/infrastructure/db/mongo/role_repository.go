package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/securedoc/account-service/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository using MongoDB.
type RoleRepository struct {
	col *mongo.Collection
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	stamped := *role
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	res, err := r.col.InsertOne(ctx, roleDoc{
		Audit:     toAuditDoc(stamped.Auditable),
		Name:      domain.NormalizeRoleName(stamped.Name),
		Authority: string(stamped.Authority),
	})
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	stamped.ID = res.InsertedID.(primitive.ObjectID).Hex()
	role.Auditable = stamped.Auditable
	return nil
}

// FindByName ignores case.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"name": domain.NormalizeRoleName(name)})
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var doc roleDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return doc.toDomain(), nil
}
