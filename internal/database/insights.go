package database

import (
	"context"
	"database/sql"
	"time"
)

// InsertInsight stores an insight.
func (db *DB) InsertInsight(ctx context.Context, in Insight) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO insights (id, scope, week, text, created_at) VALUES (?, ?, ?, ?, ?)",
		in.ID, in.Scope, in.Week, in.Text, in.CreatedAt.UnixMilli(),
	)
	return err
}

// HasInsight reports whether an insight with the same scope, week and text exists.
func (db *DB) HasInsight(ctx context.Context, scope, week, text string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM insights WHERE scope = ? AND week = ? AND text = ?",
		scope, week, text,
	).Scan(&count)
	return count > 0, err
}

// GetInsight returns one insight, or nil if none exists.
func (db *DB) GetInsight(ctx context.Context, id string) (*Insight, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, scope, week, text, created_at FROM insights WHERE id = ?", id,
	)
	in, err := scanInsight(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// ListInsights returns all insights, newest first.
func (db *DB) ListInsights(ctx context.Context) ([]Insight, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, scope, week, text, created_at FROM insights ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// DeleteInsight removes an insight. Returns false if it did not exist.
func (db *DB) DeleteInsight(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM insights WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearInsights removes every insight and returns how many were removed.
func (db *DB) ClearInsights(ctx context.Context) (int, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM insights")
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanInsight(row scanner) (Insight, error) {
	var (
		in Insight
		ms int64
	)
	if err := row.Scan(&in.ID, &in.Scope, &in.Week, &in.Text, &ms); err != nil {
		return Insight{}, err
	}
	in.CreatedAt = time.UnixMilli(ms).Local()
	return in, nil
}
