package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE submission (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	contest_id UUID NOT NULL REFERENCES contest (id) ON DELETE CASCADE,
	text_id UUID NOT NULL,
	author_id UUID NOT NULL,
	submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
	withdrawn_at TIMESTAMP WITH TIME ZONE,
	withdrawn_by UUID,
	exclusive_author_id UUID,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	CONSTRAINT submission_exclusive_author_is_author
		CHECK (exclusive_author_id IS NULL OR exclusive_author_id = author_id)
);`},
		statement{query: `
CREATE UNIQUE INDEX submission_active_text_idx
	ON submission (contest_id, text_id) WHERE withdrawn_at IS NULL;`},
		statement{query: `
CREATE UNIQUE INDEX submission_active_exclusive_author_idx
	ON submission (contest_id, exclusive_author_id)
	WHERE withdrawn_at IS NULL AND exclusive_author_id IS NOT NULL;`},
		statement{query: `CREATE INDEX submission_contest_idx ON submission (contest_id, submitted_at);`},
	)
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE submission;`)
	return err
}
