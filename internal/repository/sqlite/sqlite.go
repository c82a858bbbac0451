// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It's a pure-Go translation of SQLite — no CGo, no C compiler, trivially
// cross-compiled, and a throwaway database is just a file in a temp dir,
// which keeps repository tests fast and hermetic.
//
// THE UPSERT-AND-MERGE PATTERN (the heart of this store):
// Progress and achievements are partial-update resources: a PUT carries only
// the fields it wants to change. The merge of patch against stored row is
// done by the database in one atomic statement:
//
//	INSERT INTO t (user_id, a, b) VALUES (?, ?, ?)
//	ON CONFLICT(user_id) DO UPDATE SET
//	    a = COALESCE(excluded.a, t.a),
//	    b = COALESCE(excluded.b, t.b)
//	RETURNING ...
//
// Unprovided patch fields are bound as NULL, so COALESCE(excluded.col, t.col)
// keeps the stored value. Because the merge decision happens inside the
// engine at write time, two concurrent patches to the same user serialise on
// the row and neither can lose the other's fields — there is no read-modify-
// write window in the application.
//
// Stored NULLs (possible on a row's very first, partial write) are folded to
// the documented defaults on the way out via COALESCE in every SELECT and
// RETURNING list, so callers always see complete records.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database file at dbPath and runs migrations.
// Tests point dbPath into t.TempDir().
func New(dbPath string) (*DB, error) {
	// PRAGMAs are per-connection state, and sql.DB is a pool that opens
	// connections whenever it likes — so they ride on the DSN, where the
	// driver replays them for every new connection:
	//   journal_mode=WAL   reads proceed while a write is in flight
	//   foreign_keys=ON    off by default in SQLite; the progress and
	//                      achievements tables reference users
	//   busy_timeout       wait for a writer instead of failing with BUSY
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
//
// The progress/achievements value columns are intentionally nullable: the
// first write for a user may be partial, and we store NULL for the fields it
// didn't mention (exactly what the upsert binds). Reads COALESCE those NULLs
// to the documented defaults.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// PRIMARY KEY on user_id enforces the zero-or-one-row-per-user invariant
	// and is the conflict target for the upserts.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id            TEXT PRIMARY KEY REFERENCES users(id),
			concept_mastery    REAL,
			time_spent         REAL,
			questions_answered INTEGER,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_progress table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_achievements (
			user_id          TEXT PRIMARY KEY REFERENCES users(id),
			streak           INTEGER,
			earned_badge_ids TEXT,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_achievements table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE (or primary key)
// constraint failure from the sqlite driver.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint
// failure — for this schema, a progress/achievements write for a user id
// that doesn't exist.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || code == sqlite3.SQLITE_CONSTRAINT_TRIGGER
}
