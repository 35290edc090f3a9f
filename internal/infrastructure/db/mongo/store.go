package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/securedoc/account-service/internal/core/ports"
)

var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on MongoDB. Transactions need a replica set
// or a sharded cluster.
type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	users         *UserRepository
	credentials   *CredentialRepository
	confirmations *ConfirmationRepository
	roles         *RoleRepository
}

// NewStore wires the repositories around db.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	s := &Store{
		client:        client,
		db:            db,
		credentials:   &CredentialRepository{col: db.Collection(collectionCredentials)},
		confirmations: &ConfirmationRepository{col: db.Collection(collectionConfirmations)},
		roles:         &RoleRepository{col: db.Collection(collectionRoles)},
	}
	s.users = &UserRepository{col: db.Collection(collectionUsers), store: s}
	return s
}

func (s *Store) Users() ports.UserRepository                 { return s.users }
func (s *Store) Credentials() ports.CredentialRepository     { return s.credentials }
func (s *Store) Confirmations() ports.ConfirmationRepository { return s.confirmations }
func (s *Store) Roles() ports.RoleRepository                 { return s.roles }

// WithinTransaction runs fn in a multi-document transaction. When ctx already
// belongs to a session, fn joins it. The driver retries fn on transient
// errors such as write conflicts.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// Ping implements handler.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.client)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_1"),
		}
	}

	indexes := map[string][]mongo.IndexModel{
		collectionUsers:         {unique("email"), unique("user_id"), unique("reference_id")},
		collectionCredentials:   {unique("user_id")},
		collectionConfirmations: {unique("key"), unique("user_id")},
		collectionRoles:         {unique("name")},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// userEmailIndex is the name mongod gives the unique index on users.email.
const userEmailIndex = "email_1"

// duplicateKeyOn reports whether err is a duplicate key error raised by the
// named index.
func duplicateKeyOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "index: "+index+" ")
}

// objectID parses a hex id. Malformed ids can never match a document.
func objectID(hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
