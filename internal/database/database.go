// Package database persists journal entries, cached blobs, saved insights and
// generated digests in a single SQLite file.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// busyTimeout lets the CLI and a running server share the file without
// failing on a momentary write lock.
const busyTimeout = 5000 // ms

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open is OpenContext with a background context.
func Open(dbPath string) (*DB, error) {
	return OpenContext(context.Background(), dbPath)
}

// OpenContext opens or creates the database at dbPath and brings its schema
// up to date. Files written by a newer lightnote are refused with
// ErrSchemaTooNew.
func OpenContext(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &DB{conn: conn, path: dbPath}, nil
}

// dsn carries the per-connection pragmas, so every pooled connection gets
// them and not just the first.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout))
	return path + "?" + q.Encode()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion reports the applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, db.conn)
}
