package database

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// DBTX is the subset of *sql.DB / *sql.Tx the query functions need. Every
// function in this package takes a DBTX so the engine can run the same
// statement standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    employee_id      TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL,
    english_name     TEXT NOT NULL DEFAULT '',
    team             TEXT NOT NULL DEFAULT '',
    role             TEXT NOT NULL DEFAULT 'member',
    years            INTEGER NOT NULL DEFAULT 0,
    telegram_chat_id TEXT NOT NULL DEFAULT '',
    pin_hash         TEXT NOT NULL,
    created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_status (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    date       TEXT NOT NULL,
    meal       TEXT NOT NULL,
    private    INTEGER NOT NULL DEFAULT 0,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    status     TEXT NOT NULL,
    kind       TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(date, meal, private, user_id)
);

CREATE TABLE IF NOT EXISTS dining_groups (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    date       TEXT NOT NULL,
    meal       TEXT NOT NULL,
    private    INTEGER NOT NULL DEFAULT 0,
    host_id    INTEGER NOT NULL REFERENCES users(id),
    seats_left INTEGER NOT NULL DEFAULT 0 CHECK (seats_left >= 0),
    menu       TEXT NOT NULL DEFAULT '',
    payer_name TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(date, meal, private, host_id)
);

CREATE TABLE IF NOT EXISTS group_members (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    date      TEXT NOT NULL,
    meal      TEXT NOT NULL,
    private   INTEGER NOT NULL DEFAULT 0,
    host_id   INTEGER NOT NULL REFERENCES users(id),
    member_id INTEGER NOT NULL REFERENCES users(id),
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(date, meal, private, host_id, member_id)
);

CREATE TABLE IF NOT EXISTS invitations (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT NOT NULL,
    meal          TEXT NOT NULL,
    private       INTEGER NOT NULL DEFAULT 0,
    from_user_id  INTEGER NOT NULL REFERENCES users(id),
    to_user_id    INTEGER NOT NULL REFERENCES users(id),
    group_host_id INTEGER REFERENCES users(id),
    status        TEXT NOT NULL DEFAULT 'pending',
    kind          TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(date, meal, private, from_user_id, to_user_id)
);

CREATE INDEX IF NOT EXISTS idx_invitations_to_day
    ON invitations(date, meal, private, to_user_id);
CREATE INDEX IF NOT EXISTS idx_invitations_from_day
    ON invitations(date, meal, private, from_user_id);

CREATE TABLE IF NOT EXISTS friendships (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    requester_id INTEGER NOT NULL REFERENCES users(id),
    target_id    INTEGER NOT NULL REFERENCES users(id),
    status       TEXT NOT NULL DEFAULT 'pending',
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(requester_id, target_id)
);

CREATE TABLE IF NOT EXISTS group_chat (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    date      TEXT NOT NULL,
    meal      TEXT NOT NULL,
    private   INTEGER NOT NULL DEFAULT 0,
    host_id   INTEGER NOT NULL REFERENCES users(id),
    user_id   INTEGER NOT NULL REFERENCES users(id),
    user_name TEXT NOT NULL DEFAULT '',
    message   TEXT NOT NULL,
    sent_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_group_chat_group
    ON group_chat(date, meal, private, host_id);
`

// InitDB opens (or creates) the sqlite database at dataSourceName, applies
// the schema, and returns the connection.
func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	// sqlite serializes writes anyway; a single connection avoids
	// SQLITE_BUSY between concurrent commands.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}

	return db, nil
}
