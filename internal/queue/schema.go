package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migrations are applied in order; the database's PRAGMA user_version records
// how many have run. Append new steps, never edit released ones.
var migrations = []string{
	schemaSQL,
}

// ErrSchemaMismatch reports a database written by a newer yt4kids.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	target := len(migrations)
	switch {
	case version > target:
		return fmt.Errorf("%w: database is at version %d, this build supports %d", ErrSchemaMismatch, version, target)
	case version == target:
		return nil
	}
	for step := version; step < target; step++ {
		if err := s.migrate(ctx, step+1, migrations[step]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context, version int, stmt string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema version %d: %w", version, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			return fmt.Errorf("record schema version %d: %w", version, err)
		}
		return nil
	})
}
