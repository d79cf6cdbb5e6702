package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0005, Down0005)
}

func Up0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE judge_assignment (
	id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
	contest_id UUID NOT NULL REFERENCES contest (id) ON DELETE CASCADE,
	user_id UUID,
	agent_id UUID,
	volunteer BOOLEAN NOT NULL DEFAULT false,
	assigned_by UUID NOT NULL,
	assigned_at TIMESTAMP WITH TIME ZONE NOT NULL,
	removed_at TIMESTAMP WITH TIME ZONE,
	ballot_version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
	CONSTRAINT judge_assignment_human_xor_ai
		CHECK ((user_id IS NULL) <> (agent_id IS NULL))
);`},
		statement{query: `
CREATE UNIQUE INDEX judge_assignment_active_user_idx
	ON judge_assignment (contest_id, user_id)
	WHERE removed_at IS NULL AND user_id IS NOT NULL;`},
		statement{query: `
CREATE UNIQUE INDEX judge_assignment_active_agent_idx
	ON judge_assignment (contest_id, agent_id)
	WHERE removed_at IS NULL AND agent_id IS NOT NULL;`},
	)
}

func Down0005(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE judge_assignment;`)
	return err
}
