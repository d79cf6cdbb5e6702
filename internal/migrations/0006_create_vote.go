package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0006, Down0006)
}

func Up0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE vote (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	contest_id UUID NOT NULL REFERENCES contest (id) ON DELETE CASCADE,
	judge_assignment_id UUID NOT NULL REFERENCES judge_assignment (id) ON DELETE CASCADE,
	submission_id UUID NOT NULL REFERENCES submission (id) ON DELETE CASCADE,
	place SMALLINT CHECK (place BETWEEN 1 AND 3),
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	CONSTRAINT vote_judge_submission_unique UNIQUE (judge_assignment_id, submission_id)
);`},
		statement{query: `
CREATE UNIQUE INDEX vote_judge_place_idx
	ON vote (judge_assignment_id, place) WHERE place IS NOT NULL;`},
		statement{query: `CREATE INDEX vote_contest_idx ON vote (contest_id);`},
	)
}

func Down0006(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE vote;`)
	return err
}
