package database

import (
	"context"
	"database/sql"
)

// SaveDigest inserts or replaces the stored digest for a week.
func (db *DB) SaveDigest(ctx context.Context, weekKey string, data []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO digests (week_key, json, generated_at)
		VALUES (?, ?, datetime('now'))`,
		weekKey, string(data),
	)
	return err
}

// GetDigest returns the stored digest for a week, or nil if none exists.
func (db *DB) GetDigest(ctx context.Context, weekKey string) (*StoredDigest, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT week_key, json, generated_at FROM digests WHERE week_key = ?", weekKey,
	)

	var (
		d    StoredDigest
		data string
	)
	if err := row.Scan(&d.WeekKey, &data, &d.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.JSON = []byte(data)
	return &d, nil
}

// DigestWeeks returns the week keys with a stored digest, newest first.
func (db *DB) DigestWeeks(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT week_key FROM digests ORDER BY week_key DESC")
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

// GetStats returns aggregate database statistics.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM entries", &s.Entries},
		{"SELECT COUNT(*) FROM entries WHERE compound IS NOT NULL", &s.ScoredEntries},
		{"SELECT COUNT(*) FROM blobs", &s.Blobs},
		{"SELECT COUNT(*) FROM insights", &s.Insights},
		{"SELECT COUNT(*) FROM digests", &s.Digests},
	}

	for _, q := range queries {
		if err := db.conn.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
