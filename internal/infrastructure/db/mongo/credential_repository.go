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

// CredentialRepository implements ports.CredentialRepository using MongoDB.
type CredentialRepository struct {
	col *mongo.Collection
}

func (r *CredentialRepository) Create(ctx context.Context, credential *domain.Credential) error {
	userID, ok := objectID(credential.UserID)
	if !ok {
		return fmt.Errorf("insert credential: %w", domain.ErrUserNotFound)
	}
	stamped := *credential
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}

	res, err := r.col.InsertOne(ctx, credentialDoc{
		Audit:        toAuditDoc(stamped.Auditable),
		UserID:       userID,
		PasswordHash: stamped.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	stamped.ID = res.InsertedID.(primitive.ObjectID).Hex()
	credential.Auditable = stamped.Auditable
	return nil
}

func (r *CredentialRepository) FindByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}

	var doc credentialDoc
	if err := r.col.FindOne(ctx, bson.M{"user_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &domain.Credential{
		Auditable:    doc.Audit.toDomain(doc.ID),
		UserID:       doc.UserID.Hex(),
		PasswordHash: doc.PasswordHash,
	}, nil
}
