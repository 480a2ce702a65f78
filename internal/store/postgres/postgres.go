// Package postgres implements internal/store.Store on top of
// database/sql + lib/pq, following the teacher's
// internal/repository/postgres style (plain SQL, no ORM, one struct per
// concern) generalized to the full Store surface spec.md §4.1 requires.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting every method
// below run unmodified whether or not it's inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the Postgres-backed implementation of store.Store.
type Store struct {
	db    *sql.DB
	q     querier
	clock clock.Clock
}

// New constructs a Store bound directly to the connection pool (outside
// any transaction).
func New(db *sql.DB, clk clock.Clock) *Store {
	return &Store{db: db, q: db, clock: clk}
}

// WithTx runs fn inside a repeatable-read transaction, retrying once on a
// serialization failure (Postgres error code 40001) before surfacing
// store.ErrConflict, and rolling back on any other error.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	const maxAttempts = 2
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
		if err != nil {
			return fmt.Errorf("%w: begin tx: %v", store.ErrUnavailable, err)
		}

		txStore := &Store{db: s.db, q: tx, clock: s.clock}
		err = fn(ctx, txStore)
		if err != nil {
			_ = tx.Rollback()
			if isSerializationFailure(err) {
				lastErr = err
				continue
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			if isSerializationFailure(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("%w: commit: %v", store.ErrUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %v", store.ErrConflict, lastErr)
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}

// classifyErr maps a raw database/sql or lib/pq error into the store's
// sentinel taxonomy.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity constraint violation
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		case "40", "08": // transaction rollback, connection exception
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
