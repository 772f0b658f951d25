// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE HERE?
// Production runs against MongoDB, but SQLite lives inside the binary as a single
// file. No server to start for local development, and tests get a fresh database
// with ":memory:".
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 needs CGo and a C compiler. modernc.org/sqlite is a pure Go
// translation of SQLite, so cross-compiling the server stays trivial.
//
// STORAGE LAYOUT:
// Reports have an open schema, so we don't map every field to a column. The
// columns we filter or sort on (id, user_id, created_at) are real columns; the
// rest of the report is kept as a JSON document in the `document` column.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-collection repositories
// (Users, Reports) share it.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/reports.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// IN-MEMORY POOLS:
	// Every new connection to ":memory:" gets its OWN empty database.
	// Pinning the pool to one connection keeps all queries on the same one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Concurrent writers wait for the lock instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Reports returns the report repository backed by this database.
func (db *DB) Reports() *ReportDB {
	return &ReportDB{conn: db.conn}
}

// migrate creates the schema. Every statement is idempotent.
//
// Timestamps are stored as Unix nanoseconds (INTEGER) so ORDER BY sorts them
// numerically, with no dependence on how the driver formats time.Time.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// user_id is not a foreign key: anonymous uploads are stored with an
	// empty owner.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL DEFAULT '',
			report_type TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			document    TEXT NOT NULL DEFAULT '{}',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_user_created ON reports(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating reports table: %w", err)
	}

	return nil
}
