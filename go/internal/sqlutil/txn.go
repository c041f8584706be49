package sqlutil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Run executes fn inside a *sql.Tx.
// If fn returns an error the tx rolls back, else it commits.
func Run(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Runner is the transaction boundary the app layers run their write sets
// through. Production code wraps a *sql.DB with NewRunner; tests substitute
// an implementation that invokes fn directly.
type Runner interface {
	Run(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type dbRunner struct {
	db *sql.DB
}

// NewRunner wraps db as a Runner backed by real transactions.
func NewRunner(db *sql.DB) Runner {
	return dbRunner{db: db}
}

func (r dbRunner) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return Run(ctx, r.db, fn)
}

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres duplicate-key error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
