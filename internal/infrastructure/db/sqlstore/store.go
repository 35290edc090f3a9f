package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/securedoc/account-service/internal/core/ports"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the SQL backend.
type Config struct {
	Driver string
	DSN    string
}

var _ ports.Store = (*Store)(nil)

// Store implements ports.Store with bun on SQLite or PostgreSQL.
type Store struct {
	db     *bun.DB
	txOpts *sql.TxOptions

	users         *UserRepository
	credentials   *CredentialRepository
	confirmations *ConfirmationRepository
	roles         *RoleRepository
}

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db     *bun.DB
		txOpts *sql.TxOptions
	)

	switch cfg.Driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// One connection keeps the foreign_keys pragma in effect and matches
		// SQLite's single writer.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
		txOpts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}
	return newStore(db, txOpts), nil
}

// NewStore wraps an already configured bun database.
func NewStore(db *bun.DB) *Store {
	return newStore(db, nil)
}

func newStore(db *bun.DB, txOpts *sql.TxOptions) *Store {
	s := &Store{db: db, txOpts: txOpts}
	s.users = &UserRepository{store: s}
	s.credentials = &CredentialRepository{store: s}
	s.confirmations = &ConfirmationRepository{store: s}
	s.roles = &RoleRepository{store: s}
	return s
}

func (s *Store) Users() ports.UserRepository                 { return s.users }
func (s *Store) Credentials() ports.CredentialRepository     { return s.credentials }
func (s *Store) Confirmations() ports.ConfirmationRepository { return s.confirmations }
func (s *Store) Roles() ports.RoleRepository                 { return s.roles }

type txKey struct{}

// WithinTransaction runs fn inside RunInTx. Nested calls join the outer
// transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, s.txOpts, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// idb returns the transaction carried by ctx, or the pool.
func (s *Store) idb(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// Ping implements handler.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// CreateSchema creates the tables when they do not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	tables := []struct {
		model any
		fks   []string
	}{
		{model: (*roleModel)(nil)},
		{model: (*userModel)(nil), fks: []string{`("role_id") REFERENCES "roles" ("id")`}},
		{model: (*credentialModel)(nil), fks: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`}},
		{model: (*confirmationModel)(nil), fks: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`}},
	}

	for _, t := range tables {
		q := s.db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// uniqueViolationOn reports whether err breaks the unique constraint on
// table.column. PostgreSQL names that constraint <table>_<column>_key; SQLite
// lists the offending columns in the message.
func uniqueViolationOn(err error, table, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return false
		}
		return pqErr.Constraint == table+"_"+column+"_key" ||
			strings.HasPrefix(pqErr.Detail, "Key ("+column+")=")
	}
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return false
	}
	cols := strings.FieldsFunc(msg[i+len(marker):], func(r rune) bool { return r == ',' || r == ' ' })
	for _, col := range cols {
		if col == table+"."+column {
			return true
		}
	}
	return false
}

// affectedOne reports whether exactly one row was changed.
func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
