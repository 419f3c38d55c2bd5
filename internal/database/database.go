// Package database opens the tracker's SQLite store and bootstraps its
// schema.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var memorySeq atomic.Int64

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS glpi_configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	base_url TEXT NOT NULL,
	app_token TEXT NOT NULL,
	user_token TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS kanban_columns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tracked_tickets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	ticket_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	priority TEXT NOT NULL DEFAULT 'medium',
	assignee TEXT NOT NULL DEFAULT 'Unassigned',
	requester TEXT NOT NULL DEFAULT '',
	has_new_updates INTEGER NOT NULL DEFAULT 0,
	column_id INTEGER REFERENCES kanban_columns(id) ON DELETE SET NULL,
	glpi_created_at TEXT NOT NULL DEFAULT '',
	glpi_updated_at TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, ticket_id)
);

CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	ticket_id TEXT NOT NULL,
	phone TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	remind_at TIMESTAMP NOT NULL,
	sent_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open connects to the SQLite database at path, creating parent directories
// and the schema as needed. ":memory:" is accepted for tests.
func Open(path string) (*sqlx.DB, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=on"
	inMemory := path == ":memory:"
	if inMemory {
		// A unique name per open keeps callers isolated from each other;
		// shared cache keeps every pool connection on the same database.
		dsn = fmt.Sprintf("file:memdb%d?mode=memory&cache=shared&_foreign_keys=on", memorySeq.Add(1))
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}
