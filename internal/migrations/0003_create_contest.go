package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE contest (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	publicly_listed BOOLEAN NOT NULL DEFAULT false,
	password_protected BOOLEAN NOT NULL DEFAULT false,
	password_hash TEXT,
	status TEXT NOT NULL DEFAULT 'draft'
		CHECK (status IN ('draft', 'open', 'evaluation', 'closed')),
	end_date TIMESTAMP WITH TIME ZONE,
	author_restrictions BOOLEAN NOT NULL DEFAULT false,
	judge_restrictions BOOLEAN NOT NULL DEFAULT false,
	min_votes_required INTEGER NOT NULL DEFAULT 0 CHECK (min_votes_required >= 0),
	creator_id UUID NOT NULL,
	closed_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	CONSTRAINT contest_password_hash_present
		CHECK (NOT password_protected OR password_hash IS NOT NULL)
);`},
		statement{query: `CREATE INDEX contest_listing_idx ON contest (publicly_listed, status, created_at DESC);`},
		statement{query: `CREATE INDEX contest_creator_idx ON contest (creator_id);`},
		statement{query: `CREATE INDEX contest_open_end_date_idx ON contest (end_date) WHERE status = 'open';`},
	)
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE contest;`)
	return err
}
