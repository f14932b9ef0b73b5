// Package store implements the relational schema and CRUD operations of
// C5: documents, messages, the audience/body/following join tables, and
// the inbox visibility queries. It is built on database/sql the same way
// the teacher's internal/db/db.go is — dual SQLite/PostgreSQL driver
// support, WAL pragmas for SQLite, placeholder-style query construction —
// but every relation and query is rebuilt for this schema.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store wraps a database connection and provides all data access methods
// for C5. A single write mutex enforces the "acquire the write side in
// exclusive mode for the duration of an outbox ingestion transaction"
// discipline from spec §5 — database/sql pools connections but, unlike the
// sqlx pool pair the original relied on, does not expose reader/writer
// separation as a first-class concept.
type Store struct {
	db     *sql.DB
	driver string

	writeMu sync.Mutex
}

// Open opens a database connection. dsn may be:
//   - a bare file path, or "sqlite://path/to/file.db" → SQLite
//   - "sqlite::memory:" → in-memory SQLite, sharing one pool for read and
//     write, per spec §4.5's "in-memory variant shares one pool" note
//   - "postgres://..." → PostgreSQL
func Open(dsn string) (*Store, error) {
	driver, dataSource, memory := detectDriver(dsn)

	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if driver == "sqlite" {
		maxConns := 4
		if memory {
			// A single connection keeps every statement on the same
			// in-memory database instead of each spawning its own empty one.
			maxConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)

		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
			"PRAGMA synchronous=NORMAL",
		} {
			if memory && pragma == "PRAGMA journal_mode=WAL" {
				continue // WAL requires a file-backed database
			}
			if _, err := db.Exec(pragma); err != nil {
				return nil, fmt.Errorf("sqlite pragma (%s): %w", pragma, err)
			}
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates every relation idempotently, per spec §6's "schema is
// created idempotently on startup".
func (s *Store) Migrate(ctx context.Context) error {
	slog.Info("running database migrations")
	for _, stmt := range schema {
		if s.driver == "postgres" {
			stmt = strings.ReplaceAll(stmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if s.driver == "postgres" && strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	slog.Info("migrations complete")
	return nil
}

// schema lists the DDL for every relation in spec §3, shared between
// SQLite and PostgreSQL. It is written in SQLite syntax; for PostgreSQL,
// Migrate rewrites the auto-increment idx columns as BIGSERIAL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		document_id   TEXT PRIMARY KEY,
		document_blob TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		idx        INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL UNIQUE,
		actor_id   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_actor_id ON messages(actor_id)`,
	`CREATE TABLE IF NOT EXISTS messages_audiences (
		id          TEXT PRIMARY KEY,
		message_id  TEXT NOT NULL,
		audience_id TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_audiences_message_id ON messages_audiences(message_id)`,
	`CREATE INDEX IF NOT EXISTS messages_audiences_audience_id ON messages_audiences(audience_id)`,
	`CREATE TABLE IF NOT EXISTS messages_bodies (
		id         TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		body_id    TEXT NOT NULL,
		created_by TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS messages_bodies_message_id ON messages_bodies(message_id)`,
	`CREATE INDEX IF NOT EXISTS messages_bodies_body_id ON messages_bodies(body_id)`,
	`CREATE INDEX IF NOT EXISTS messages_bodies_created_by ON messages_bodies(created_by)`,
	`CREATE TABLE IF NOT EXISTS actors_audiences (
		id          TEXT PRIMARY KEY,
		actor_id    TEXT NOT NULL,
		audience_id TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS actors_audiences_actor_id ON actors_audiences(actor_id)`,
	`CREATE INDEX IF NOT EXISTS actors_audiences_audience_id ON actors_audiences(audience_id)`,
	`CREATE TABLE IF NOT EXISTS actors_followings (
		idx          INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id     TEXT NOT NULL,
		following_id TEXT NOT NULL,
		UNIQUE(actor_id, following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS actors_followings_actor_id ON actors_followings(actor_id)`,
	`CREATE INDEX IF NOT EXISTS actors_followings_following_id ON actors_followings(following_id)`,
	`CREATE TABLE IF NOT EXISTS mutable_modified (
		id          TEXT PRIMARY KEY,
		modified_ms BIGINT NOT NULL
	)`,
}

// BeginWrite starts a transaction while holding the write mutex for its
// entire lifetime; callers MUST call either Commit or Rollback on the
// returned Tx (both release the mutex) exactly once.
func (s *Store) BeginWrite(ctx context.Context) (*Tx, error) {
	s.writeMu.Lock()
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{store: s, tx: sqlTx}, nil
}

// Tx is a write transaction holding the Store's write mutex.
type Tx struct {
	store *Store
	tx    *sql.Tx
	done  bool
}

// Commit commits the transaction and releases the write mutex.
func (t *Tx) Commit() error {
	defer t.release()
	return t.tx.Commit()
}

// Rollback aborts the transaction and releases the write mutex. Safe to
// call after a failed Commit or as a deferred cleanup.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	defer t.release()
	return t.tx.Rollback()
}

func (t *Tx) release() {
	if t.done {
		return
	}
	t.done = true
	t.store.writeMu.Unlock()
}

// Queryer is implemented by both *sql.DB and *sql.Tx, letting every CRUD
// method below run against either a plain connection (reads) or an
// in-flight write transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB returns the Queryer backing the store's plain connection pool, for
// read operations (and single-statement writes like actor/body puts) that
// do not require the write-mutex-guarded ingestion transaction.
func (s *Store) DB() Queryer { return s.db }

// placeholder returns the placeholder for the n-th (1-indexed) query
// argument in the driver's native syntax: "$n" for PostgreSQL, "?" for
// SQLite.
func (s *Store) placeholder(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func detectDriver(dsn string) (driver, dataSource string, memory bool) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", dsn, false
	}
	if dsn == "sqlite::memory:" || dsn == ":memory:" {
		// A shared cache keeps every connection pointed at the same
		// in-memory database instead of each seeing an empty one.
		return "sqlite", "file::memory:?cache=shared", true
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), false
	}
	return "sqlite", dsn, false
}
