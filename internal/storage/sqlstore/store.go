// Package sqlstore implements the repositories on top of sqlx. Queries are
// written with ? placeholders and rebound for the active driver, so the
// same code serves PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/cuongbtq/botmr-be/internal/storage"
	"github.com/cuongbtq/botmr-be/shared/database"
	"github.com/jmoiron/sqlx"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sqlx.DB
}

// New creates a store on the client's connection pool.
func New(client *database.Client) *Store {
	return &Store{db: client.GetDB()}
}

// NewFromDB creates a store on an existing sqlx handle.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("database ping failed", err)
	}
	return nil
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// notFoundOr maps sql.ErrNoRows to a NotFoundError and anything else to a
// StorageError.
func notFoundOr(err error, op, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(format, args...)
	}
	return domain.NewStorageError(op, err)
}

// requireAffected turns a zero-row update or delete into a NotFoundError.
func requireAffected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("failed to read affected rows", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(format, args...)
	}
	return nil
}

// inClause returns "(?, ?, ...)" for n placeholders.
func inClause(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
