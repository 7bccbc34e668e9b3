// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. A catalog of
// this size (a few thousand apps, reads dominating writes) fits it comfortably.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// TEXT SEARCH:
// The search endpoint needs a full-text index over name, description, and
// developer. We use SQLite's built-in FTS5 extension with an external-content
// table (apps_fts) kept in sync by triggers, and rank results with bm25.
// No custom scoring — library-default relevance, same as the product behavior.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import `_ "modernc.org/sqlite"` is a "side-effect only" import.
	// The sqlite package's init() function registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods for
// all three collections (apps, reviews, categories).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/apkstore.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection: letting the pool open a
	// second connection would hand out a fresh empty database. Pin the pool
	// to a single connection so ":memory:" behaves like one store.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query — which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes.
	// WAL mode allows concurrent reads WHILE a write is happening —
	// important for a web server where catalog reads vastly outnumber writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// Note: reviews.app_id deliberately carries NO foreign key — a review may
	// reference an app that no longer exists (orphaning is the default cascade
	// policy), and review submission does not check app existence.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
// Wherever you call New(), immediately defer Close().
func (db *DB) Close() error {
	return db.conn.Close()
}

// Reset removes every row from every collection. Used by the seeder, which
// replaces the whole catalog with the sample dataset.
func (db *DB) Reset(ctx context.Context) error {
	for _, table := range []string{"reviews", "apps", "categories"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlite: clearing %s: %w", table, err)
		}
	}
	return nil
}

// migrate runs all database migrations.
// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup.
func (db *DB) migrate() error {
	// Apps table. permissions and screenshots are ordered lists serialized as
	// JSON text — they're opaque to queries, only read back as whole values.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS apps (
			id                     TEXT PRIMARY KEY,
			name                   TEXT NOT NULL,
			developer              TEXT NOT NULL,
			category               TEXT NOT NULL,
			icon                   TEXT NOT NULL DEFAULT '',
			version                TEXT NOT NULL,
			size                   TEXT NOT NULL DEFAULT '',
			downloads              INTEGER NOT NULL DEFAULT 0,
			rating                 REAL NOT NULL DEFAULT 0,
			reviews                INTEGER NOT NULL DEFAULT 0,
			description            TEXT NOT NULL DEFAULT '',
			full_description       TEXT NOT NULL DEFAULT '',
			whats_new              TEXT NOT NULL DEFAULT '',
			permissions            TEXT NOT NULL DEFAULT '[]',
			screenshots            TEXT NOT NULL DEFAULT '[]',
			is_featured            INTEGER NOT NULL DEFAULT 0,
			apk_file               TEXT NOT NULL DEFAULT '',
			package_name           TEXT NOT NULL DEFAULT '',
			min_android_version    TEXT NOT NULL DEFAULT '',
			target_android_version TEXT NOT NULL DEFAULT '',
			created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_apps_category ON apps(category);
		CREATE INDEX IF NOT EXISTS idx_apps_downloads ON apps(downloads);
		CREATE INDEX IF NOT EXISTS idx_apps_updated_at ON apps(updated_at);
		CREATE INDEX IF NOT EXISTS idx_apps_is_featured ON apps(is_featured);
	`)
	if err != nil {
		return fmt.Errorf("creating apps table: %w", err)
	}

	// FTS5 full-text index over name/description/developer.
	// content='apps' makes it an external-content table: the index stores no
	// copy of the text, it references the apps table by rowid. The three
	// triggers keep the index in sync with every insert/update/delete.
	_, err = db.conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS apps_fts USING fts5(
			name, description, developer,
			content='apps', content_rowid='rowid'
		);
		CREATE TRIGGER IF NOT EXISTS apps_fts_ai AFTER INSERT ON apps BEGIN
			INSERT INTO apps_fts(rowid, name, description, developer)
			VALUES (new.rowid, new.name, new.description, new.developer);
		END;
		CREATE TRIGGER IF NOT EXISTS apps_fts_ad AFTER DELETE ON apps BEGIN
			INSERT INTO apps_fts(apps_fts, rowid, name, description, developer)
			VALUES ('delete', old.rowid, old.name, old.description, old.developer);
		END;
		CREATE TRIGGER IF NOT EXISTS apps_fts_au AFTER UPDATE ON apps BEGIN
			INSERT INTO apps_fts(apps_fts, rowid, name, description, developer)
			VALUES ('delete', old.rowid, old.name, old.description, old.developer);
			INSERT INTO apps_fts(rowid, name, description, developer)
			VALUES (new.rowid, new.name, new.description, new.developer);
		END;
	`)
	if err != nil {
		return fmt.Errorf("creating apps_fts index: %w", err)
	}

	// Reviews table. app_id is indexed (every read and every rating recompute
	// filters on it) but is NOT a foreign key — see the pragma comment in New.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			app_id     TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			user_name  TEXT NOT NULL DEFAULT '',
			rating     INTEGER NOT NULL,
			comment    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_app_id ON reviews(app_id);
	`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}

	// Categories table. name is UNIQUE — the second insert of "tools" fails
	// with a constraint violation that surfaces as a conflict error.
	// There is no app_count column: the count is computed on read from the
	// apps table, so it can never go stale.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			icon         TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating categories table: %w", err)
	}

	return nil
}
