// Package store is the durable, transactional persistence layer for
// task groups, tasks, dependencies, file ownership, and progress logs.
// It wraps a single SQLite connection in WAL mode with a single writer,
// grounded on the teacher's internal/db package.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kestrel-dev/taskmesh/embed/schema"
	_ "modernc.org/sqlite"
)

// Store is the durable record store. ClaimTask and WithTx run inside one
// write transaction (BEGIN IMMEDIATE for a file-backed store) so a
// concurrent claim on the same task linearizes and the loser observes the
// post-write state. The other write methods run as single statements.
type Store struct {
	db *sql.DB
}

// executor is satisfied by both *sql.DB and *sql.Tx, letting internal
// helpers run identically inside or outside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Store{}
)

// Open returns the process-wide Store singleton for the resolved
// absolute path, opening it on first use. Reusing a single *sql.DB per
// path is required because SQLite works best with one writer.
func Open(path string) (*Store, error) {
	if path == ":memory:" {
		return open(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if s, ok := registry[abs]; ok {
		return s, nil
	}

	s, err := open(abs)
	if err != nil {
		return nil, err
	}
	registry[abs] = s
	return s, nil
}

// OpenForTest returns a fresh in-memory Store, bypassing the process
// singleton, for isolated tests.
func OpenForTest() (*Store, error) {
	return open(":memory:")
}

func open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite works best with a single writer. Within this process every
	// query shares the one connection; WAL lets readers in other
	// processes proceed while it writes.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Init verifies (idempotently, via IF NOT EXISTS DDL) that the schema
// exists.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema.Schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a write transaction acquired with immediate
// (write-intent) locking, so concurrent state-changing calls on the same
// row linearize instead of racing at commit time.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
