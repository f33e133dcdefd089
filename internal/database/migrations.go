package database

import (
	"context"
	"database/sql"
)

// Migration is one schema step. Up must be idempotent.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

// migrations is ordered by Version. Append only.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    compound REAL,
    pos REAL,
    neg REAL,
    neu REAL
);

CREATE TABLE IF NOT EXISTS blobs (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    data BLOB NOT NULL,
    updated_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "insights and persisted digests",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS insights (
    id TEXT PRIMARY KEY,
    scope TEXT NOT NULL,
    week TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS digests (
    week_key TEXT PRIMARY KEY,
    json TEXT NOT NULL,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_insights_created ON insights(created_at);
CREATE INDEX IF NOT EXISTS idx_insights_scope_week ON insights(scope, week);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
