package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrSchemaTooNew is returned for a file migrated by a newer lightnote.
// Opening it anyway would let this build write rows the newer schema
// does not expect.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

func schemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrate applies every migration above the stored user_version, in order.
func migrate(ctx context.Context, conn *sql.DB) error {
	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	latest := latestVersion()
	switch {
	case current > latest:
		return fmt.Errorf("%w: file is at version %d, this build knows up to %d", ErrSchemaTooNew, current, latest)
	case current == latest:
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, conn, m); err != nil {
			return err
		}
	}
	log.Info().Int("from", current).Int("to", latest).Msg("database schema migrated")
	return nil
}

func apply(ctx context.Context, conn *sql.DB, m Migration) error {
	log.Debug().Int("version", m.Version).Msgf("applying migration: %s", m.Description)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if err := m.Up(ctx, tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	// The DDL is idempotent, so a crash before this stamp only re-runs it.
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("stamping version %d: %w", m.Version, err)
	}
	return nil
}
