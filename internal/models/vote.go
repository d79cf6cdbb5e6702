package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/quillfight/contest-api/internal/contest"
)

// Votes are never updated in place, so there is no updated_at.
type Vote struct {
	CreatedAt         time.Time
	Place             *int
	Comment           string
	ID                uuid.UUID `gorm:"primaryKey;default:uuidv7_sub_ms()"`
	ContestID         uuid.UUID
	JudgeAssignmentID uuid.UUID
	SubmissionID      uuid.UUID
}

func (Vote) TableName() string {
	return "vote"
}

func (v Vote) GetID() uuid.UUID {
	return v.ID
}

func voteRow(v *contest.Vote) *Vote {
	return &Vote{
		ID:                v.ID,
		ContestID:         v.ContestID,
		JudgeAssignmentID: v.JudgeAssignmentID,
		SubmissionID:      v.SubmissionID,
		Place:             v.Place,
		Comment:           v.Comment,
		CreatedAt:         v.CreatedAt,
	}
}

func (v *Vote) domain() contest.Vote {
	return contest.Vote{
		ID:                v.ID,
		ContestID:         v.ContestID,
		JudgeAssignmentID: v.JudgeAssignmentID,
		SubmissionID:      v.SubmissionID,
		Place:             v.Place,
		Comment:           v.Comment,
		CreatedAt:         v.CreatedAt,
	}
}

// ReplaceBallot bumps the ballot version with a compare and swap, then swaps
// the votes. The caller is expected to hold the assignment row lock; the swap
// still refuses to run on a stale version.
func (s *Store) ReplaceBallot(ctx context.Context, judgeID uuid.UUID, expectedVersion int64, votes []contest.Vote) error {
	ctx, span := tracer.Start(ctx, "Store.ReplaceBallot")
	defer span.End()

	span.SetAttributes(
		attribute.String("judge.id", judgeID.String()),
		attribute.Int64("ballot.version", expectedVersion),
		attribute.Int("votes", len(votes)),
	)

	err := s.inTransaction(ctx, func(tx *Store) error {
		db := tx.conn(ctx)

		result := db.Model(&JudgeAssignment{}).
			Where("id = ? AND ballot_version = ?", judgeID, expectedVersion).
			Update("ballot_version", gorm.Expr("ballot_version + 1"))
		if result.Error != nil {
			return translate(result.Error)
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := db.Model(&JudgeAssignment{}).Where("id = ?", judgeID).Count(&exists).Error; err != nil {
				return translate(err)
			}
			if exists == 0 {
				return contest.ErrNotFound
			}
			return fmt.Errorf("%w: ballot version moved from %d", contest.ErrConflict, expectedVersion)
		}

		if err := db.Where("judge_assignment_id = ?", judgeID).Delete(&Vote{}).Error; err != nil {
			return translate(err)
		}

		if len(votes) == 0 {
			return nil
		}

		rows := make([]*Vote, 0, len(votes))
		for i := range votes {
			rows = append(rows, voteRow(&votes[i]))
		}
		if err := db.Create(rows).Error; err != nil {
			return translate(err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to replace ballot")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "replaced ballot")
	return nil
}

func (s *Store) listVotes(ctx context.Context, column string, id uuid.UUID) ([]contest.Vote, error) {
	ctx, span := tracer.Start(ctx, "Store.ListVotes", trace.WithAttributes(
		attribute.String("by", column),
	))
	defer span.End()

	var rows []Vote
	if err := s.conn(ctx).Where(column+" = ?", id).Order("id").Find(&rows).Error; err != nil {
		return nil, failed(span, err)
	}

	out := make([]contest.Vote, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, nil
}

func (s *Store) ListBallot(ctx context.Context, judgeID uuid.UUID) ([]contest.Vote, error) {
	return s.listVotes(ctx, "judge_assignment_id", judgeID)
}

func (s *Store) ListVotes(ctx context.Context, contestID uuid.UUID) ([]contest.Vote, error) {
	return s.listVotes(ctx, "contest_id", contestID)
}
