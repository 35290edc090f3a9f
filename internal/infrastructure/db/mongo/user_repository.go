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

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	col   *mongo.Collection
	store *Store
}

// Create inserts a stamped user document.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	stamped := *user
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}

	res, err := r.col.InsertOne(ctx, toUserDoc(&stamped))
	if err != nil {
		if duplicateKeyOn(err, userEmailIndex) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	stamped.ID = res.InsertedID.(primitive.ObjectID).Hex()
	user.Auditable = stamped.Auditable
	return nil
}

// Update rewrites the mutable fields of the user. Creation metadata is never
// part of the update document.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	id, ok := objectID(user.ID)
	if !ok {
		return domain.ErrUserNotFound
	}
	stamped := *user
	if err := stamped.StampUpdate(ctx, time.Now()); err != nil {
		return err
	}

	doc := toUserDoc(&stamped)
	set := bson.M{
		"first_name":          doc.FirstName,
		"last_name":           doc.LastName,
		"email":               doc.Email,
		"phone":               doc.Phone,
		"bio":                 doc.Bio,
		"image_url":           doc.ProfileImageURL,
		"login_attempts":      doc.LoginAttempts,
		"last_login":          doc.LastLoginAt,
		"account_non_expired": doc.AccountNonExpired,
		"account_non_locked":  doc.AccountNonLocked,
		"enabled":             doc.Enabled,
		"mfa":                 doc.MFAEnabled,
		"qr_code_secret":      doc.QRCodeSecret,
		"qr_code_image_uri":   doc.QRCodeImageURI,
		"role_id":             doc.RoleID,
		"updated_by":          doc.Audit.UpdatedBy,
		"updated_at":          doc.Audit.UpdatedAt,
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if duplicateKeyOn(err, userEmailIndex) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	user.Auditable = stamped.Auditable
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := doc.toDomain()
	if user.RoleID != "" {
		role, err := r.store.roles.FindByID(ctx, user.RoleID)
		if err != nil && !errors.Is(err, domain.ErrRoleNotFound) {
			return nil, err
		}
		user.Role = role
	}
	return user, nil
}

// Delete removes the user and, in the same transaction, its credential and
// confirmation.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}

	return r.store.WithinTransaction(ctx, func(ctx context.Context) error {
		res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrUserNotFound
		}
		if _, err := r.store.credentials.col.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
		if _, err := r.store.confirmations.col.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
			return fmt.Errorf("delete confirmations: %w", err)
		}
		return nil
	})
}
