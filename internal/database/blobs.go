package database

import (
	"context"
	"database/sql"

	"github.com/TobiSchelling/lightnote/internal/kv"
)

// BlobStore is a kv.Store over one namespace of the blobs table.
type BlobStore struct {
	db        *DB
	namespace string
}

// Blobs returns the blob store for a namespace. One row per key.
func (db *DB) Blobs(namespace string) *BlobStore {
	return &BlobStore{db: db, namespace: namespace}
}

// Get returns the blob for key, or kv.ErrNotFound.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.conn.QueryRowContext(ctx,
		"SELECT data FROM blobs WHERE namespace = ? AND key = ?", b.namespace, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put replaces the blob for key.
func (b *BlobStore) Put(ctx context.Context, key string, blob []byte) error {
	_, err := b.db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO blobs (namespace, key, data, updated_at)
		VALUES (?, ?, ?, datetime('now'))`,
		b.namespace, key, blob,
	)
	return err
}

// Keys lists the keys in the namespace, sorted.
func (b *BlobStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.conn.QueryContext(ctx,
		"SELECT key FROM blobs WHERE namespace = ? ORDER BY key", b.namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear removes every blob in the namespace.
func (b *BlobStore) Clear(ctx context.Context) error {
	_, err := b.db.conn.ExecContext(ctx, "DELETE FROM blobs WHERE namespace = ?", b.namespace)
	return err
}

var (
	_ kv.Store  = (*BlobStore)(nil)
	_ kv.Lister = (*BlobStore)(nil)
)
