package repository

import (
	"context"
	"fmt"
)

// schema is valid for both Postgres and SQLite. Timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_usage (
		user_id    TEXT    NOT NULL,
		day        TEXT    NOT NULL,
		count      INTEGER NOT NULL DEFAULT 0,
		updated_at BIGINT  NOT NULL,
		PRIMARY KEY (user_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS calculation_snapshot (
		id         TEXT   PRIMARY KEY,
		kind       TEXT   NOT NULL,
		user_id    TEXT   NOT NULL,
		inputs     TEXT   NOT NULL,
		result     TEXT   NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS calculation_snapshot_user_kind
		ON calculation_snapshot (user_id, kind, created_at)`,
}

// Migrate creates the tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
