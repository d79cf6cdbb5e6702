package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/quillfight/contest-api/internal/contest"
)

// RankingSnapshot caches the frozen ranking of a closed contest. Votes stay
// the source of truth.
type RankingSnapshot struct {
	ComputedAt time.Time
	InputsHash string
	Standings  datatypes.JSONType[[]contest.Standing]
	Model
	ContestID uuid.UUID
}

func (RankingSnapshot) TableName() string {
	return "ranking_snapshot"
}

func (r RankingSnapshot) GetID() uuid.UUID {
	return r.ID
}

func (s *Store) SaveRankingSnapshot(ctx context.Context, snapshot *contest.RankingSnapshot) error {
	ctx, span := tracer.Start(ctx, "Store.SaveRankingSnapshot")
	defer span.End()

	row := &RankingSnapshot{
		ContestID:  snapshot.ContestID,
		ComputedAt: snapshot.ComputedAt,
		InputsHash: snapshot.InputsHash,
		Standings:  datatypes.NewJSONType(snapshot.Standings),
	}

	err := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contest_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"computed_at", "inputs_hash", "standings"}),
		}).
		Create(row).Error
	if err != nil {
		return failed(span, err)
	}

	return nil
}

func (s *Store) GetRankingSnapshot(ctx context.Context, contestID uuid.UUID) (*contest.RankingSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Store.GetRankingSnapshot")
	defer span.End()

	var row RankingSnapshot
	if err := s.conn(ctx).First(&row, "contest_id = ?", contestID).Error; err != nil {
		return nil, failed(span, err)
	}

	standings := row.Standings.Data()
	if standings == nil {
		standings = []contest.Standing{}
	}

	return &contest.RankingSnapshot{
		ContestID:  row.ContestID,
		ComputedAt: row.ComputedAt,
		InputsHash: row.InputsHash,
		Standings:  standings,
	}, nil
}

func (s *Store) DeleteRankingSnapshot(ctx context.Context, contestID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Store.DeleteRankingSnapshot")
	defer span.End()

	result := s.conn(ctx).Where("contest_id = ?", contestID).Delete(&RankingSnapshot{})
	if result.Error != nil {
		return failed(span, result.Error)
	}
	if result.RowsAffected == 0 {
		return contest.ErrNotFound
	}

	return nil
}
