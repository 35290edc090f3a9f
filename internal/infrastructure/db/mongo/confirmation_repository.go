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

// ConfirmationRepository implements ports.ConfirmationRepository using MongoDB.
type ConfirmationRepository struct {
	col *mongo.Collection
}

func (r *ConfirmationRepository) Create(ctx context.Context, confirmation *domain.Confirmation) error {
	userID, ok := objectID(confirmation.UserID)
	if !ok {
		return fmt.Errorf("insert confirmation: %w", domain.ErrUserNotFound)
	}
	stamped := *confirmation
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}

	res, err := r.col.InsertOne(ctx, confirmationDoc{
		Audit:  toAuditDoc(stamped.Auditable),
		Key:    stamped.Key,
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	stamped.ID = res.InsertedID.(primitive.ObjectID).Hex()
	confirmation.Auditable = stamped.Auditable
	return nil
}

func (r *ConfirmationRepository) FindByKey(ctx context.Context, key string) (*domain.Confirmation, error) {
	return r.findOne(ctx, bson.M{"key": key})
}

func (r *ConfirmationRepository) FindByUserID(ctx context.Context, userID string) (*domain.Confirmation, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return r.findOne(ctx, bson.M{"user_id": oid})
}

func (r *ConfirmationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Confirmation, error) {
	var doc confirmationDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find confirmation: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes exactly one confirmation or reports ErrTokenNotFound.
func (r *ConfirmationRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrTokenNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete confirmation: %w", err)
	}
	if res.DeletedCount != 1 {
		return domain.ErrTokenNotFound
	}
	return nil
}
