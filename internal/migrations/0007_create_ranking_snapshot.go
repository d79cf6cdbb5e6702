package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0007, Down0007)
}

func Up0007(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE ranking_snapshot (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	contest_id UUID NOT NULL UNIQUE REFERENCES contest (id) ON DELETE CASCADE,
	computed_at TIMESTAMP WITH TIME ZONE NOT NULL,
	inputs_hash TEXT NOT NULL,
	standings JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`)
	return err
}

func Down0007(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE ranking_snapshot;`)
	return err
}
