package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0002, Down0002)
}

func Up0002(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE account (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	token TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	system BOOLEAN NOT NULL DEFAULT false,
	active BOOLEAN,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`)
	return err
}

func Down0002(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE account;`)
	return err
}
