package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TobiSchelling/lightnote/internal/journal"
	"github.com/TobiSchelling/lightnote/internal/week"
)

const entryColumns = "id, text, created_at, compound, pos, neg, neu"

// UpsertEntry inserts an entry or updates the stored one with the same ID.
// Returns true when the ID was new.
func (db *DB) UpsertEntry(ctx context.Context, e journal.Entry) (bool, error) {
	n, err := db.UpsertEntries(ctx, []journal.Entry{e})
	return n == 1, err
}

// UpsertEntries stores entries in one transaction and returns how many were new.
// An existing entry keeps its stored sentiment unless the new one carries a score.
func (db *DB) UpsertEntries(ctx context.Context, entries []journal.Entry) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	for _, e := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entries (`+entryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Text, e.CreatedAt.UnixMilli(), nil, nil, nil, nil,
		)
		if err != nil {
			return 0, fmt.Errorf("storing entry %s: %w", e.ID, err)
		}
		n, _ := res.RowsAffected()
		added += int(n)

		if e.Sentiment != nil {
			s := e.Sentiment.Clamp()
			if _, err := tx.ExecContext(ctx,
				"UPDATE entries SET text = ?, created_at = ?, compound = ?, pos = ?, neg = ?, neu = ? WHERE id = ?",
				e.Text, e.CreatedAt.UnixMilli(), s.Compound, s.Pos, s.Neg, s.Neu, e.ID,
			); err != nil {
				return 0, fmt.Errorf("storing entry %s: %w", e.ID, err)
			}
		} else if n == 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE entries SET text = ?, created_at = ? WHERE id = ?",
				e.Text, e.CreatedAt.UnixMilli(), e.ID,
			); err != nil {
				return 0, fmt.Errorf("storing entry %s: %w", e.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// GetEntry returns the entry with the given ID, or nil if none exists.
func (db *DB) GetEntry(ctx context.Context, id string) (*journal.Entry, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id = ?", id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// EntriesBetween returns entries with start <= created_at < end, oldest first.
func (db *DB) EntriesBetween(ctx context.Context, start, end time.Time) ([]journal.Entry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at, id`,
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// UnscoredEntries returns entries that have no sentiment yet.
func (db *DB) UnscoredEntries(ctx context.Context) ([]journal.Entry, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE compound IS NULL ORDER BY created_at, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SetSentiment records the sentiment for an entry.
func (db *DB) SetSentiment(ctx context.Context, id string, s journal.Sentiment) error {
	s = s.Clamp()
	_, err := db.conn.ExecContext(ctx,
		"UPDATE entries SET compound = ?, pos = ?, neg = ?, neu = ? WHERE id = ?",
		s.Compound, s.Pos, s.Neg, s.Neu, id,
	)
	return err
}

// DeleteEntry removes an entry.
func (db *DB) DeleteEntry(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	return err
}

// WeekKeys returns the distinct week keys that have entries, newest first.
// Keys are computed in loc.
func (db *DB) WeekKeys(ctx context.Context, loc *time.Location) ([]week.Key, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT created_at FROM entries ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []week.Key
	seen := make(map[week.Key]bool)
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		k := week.KeyOf(time.UnixMilli(ms).In(loc))
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (journal.Entry, error) {
	var (
		e                       journal.Entry
		ms                      int64
		compound, pos, neg, neu sql.NullFloat64
	)
	if err := row.Scan(&e.ID, &e.Text, &ms, &compound, &pos, &neg, &neu); err != nil {
		return journal.Entry{}, err
	}
	e.CreatedAt = time.UnixMilli(ms).Local()
	if compound.Valid {
		s := journal.NewSentiment(compound.Float64, pos.Float64, neg.Float64, neu.Float64)
		e.Sentiment = &s
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]journal.Entry, error) {
	var entries []journal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
