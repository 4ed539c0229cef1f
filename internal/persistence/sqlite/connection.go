// Package sqlite persists planner state in a single SQLite database via the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/weekly-planner/internal/persistence"
	_ "modernc.org/sqlite"
)

// Config holds connection settings for the SQLite store.
type Config struct {
	// DSN is the database path or ":memory:" for tests.
	DSN string
}

// ConnectionPool manages the shared database handle and transaction scope.
type ConnectionPool struct {
	db *sql.DB
}

// connPragmas are encoded in the DSN so the driver runs them on every
// connection the pool opens. A plain Exec would configure only the one
// connection that happened to execute it, leaving foreign keys off and
// cascades inert on the rest of the pool.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// NewConnectionPool opens the database and applies the pragmas the planner
// relies on: foreign keys for cascades and WAL for concurrent readers.
func NewConnectionPool(config Config) (*ConnectionPool, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}

	dsn := config.DSN
	if strings.Contains(dsn, "?") {
		dsn += "&" + connPragmas
	} else {
		dsn += "?" + connPragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", config.DSN, err)
	}
	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc runs inside a transaction scope.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors to the persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
