// Package storage persists users, transactions, budgets, exchange rates and
// import jobs in sqlite. All monetary values are stored as decimal strings
// and timestamps as unix microseconds, so window comparisons and sums never
// round through floating point.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is the single sqlite-backed store. A Repository returned by
// InTx is bound to that transaction; the zero-value Repository is not usable.
type Repository struct {
	db *sql.DB // nil when bound to a transaction
	q  querier
}

// Open opens (creating if needed) the sqlite database at dbPath and runs
// pending migrations. Write transactions take the lock immediately so
// concurrent settlements serialize instead of failing mid-flight.
func Open(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := "file:" + dbPath +
		"?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, q: db}, nil
}

// Close closes the underlying database. Calling Close on a transaction-bound
// Repository is a no-op.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InTx runs fn against a Repository bound to a single write transaction.
// The transaction commits when fn returns nil and rolls back otherwise, so
// multi-step operations (budget check, insert, balance update) are
// all-or-nothing.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Repository{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
