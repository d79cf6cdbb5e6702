package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/quillfight/contest-api/internal/contest"
)

type JudgeAssignment struct {
	AssignedAt time.Time
	RemovedAt  datatypes.Null[time.Time]
	UserID     *uuid.UUID
	AgentID    *uuid.UUID
	Model
	ContestID     uuid.UUID
	AssignedBy    uuid.UUID
	BallotVersion int64
	Volunteer     bool
}

func (JudgeAssignment) TableName() string {
	return "judge_assignment"
}

func (j JudgeAssignment) GetID() uuid.UUID {
	return j.ID
}

func judgeRow(j *contest.JudgeAssignment) *JudgeAssignment {
	return &JudgeAssignment{
		Model:         Model{ID: j.ID},
		ContestID:     j.ContestID,
		UserID:        j.UserID,
		AgentID:       j.AgentID,
		Volunteer:     j.Volunteer,
		AssignedBy:    j.AssignedBy,
		AssignedAt:    j.AssignedAt,
		RemovedAt:     NewNull(j.RemovedAt),
		BallotVersion: j.BallotVersion,
	}
}

func (j *JudgeAssignment) domain() contest.JudgeAssignment {
	return contest.JudgeAssignment{
		ID:            j.ID,
		ContestID:     j.ContestID,
		UserID:        j.UserID,
		AgentID:       j.AgentID,
		Volunteer:     j.Volunteer,
		AssignedBy:    j.AssignedBy,
		AssignedAt:    j.AssignedAt,
		RemovedAt:     PtrFromNull(j.RemovedAt),
		BallotVersion: j.BallotVersion,
	}
}

func (s *Store) CreateJudge(ctx context.Context, j *contest.JudgeAssignment) error {
	ctx, span := tracer.Start(ctx, "Store.CreateJudge")
	defer span.End()

	row := judgeRow(j)
	if err := s.conn(ctx).Create(row).Error; err != nil {
		return failed(span, err)
	}

	j.ID = row.ID
	return nil
}

func (s *Store) getJudge(ctx context.Context, contestID, id uuid.UUID, lock bool) (*contest.JudgeAssignment, error) {
	ctx, span := tracer.Start(ctx, "Store.GetJudge")
	defer span.End()

	query := s.conn(ctx)
	if lock {
		query = query.Clauses(lockForUpdate())
	}

	var row JudgeAssignment
	if err := query.First(&row, "id = ? AND contest_id = ?", id, contestID).Error; err != nil {
		return nil, failed(span, err)
	}

	j := row.domain()
	return &j, nil
}

func (s *Store) GetJudge(ctx context.Context, contestID, id uuid.UUID) (*contest.JudgeAssignment, error) {
	return s.getJudge(ctx, contestID, id, false)
}

func (s *Store) LockJudge(ctx context.Context, contestID, id uuid.UUID) (*contest.JudgeAssignment, error) {
	return s.getJudge(ctx, contestID, id, true)
}

func (s *Store) ActiveJudge(ctx context.Context, contestID uuid.UUID, ref contest.JudgeRef) (*contest.JudgeAssignment, error) {
	ctx, span := tracer.Start(ctx, "Store.ActiveJudge")
	defer span.End()

	query := s.conn(ctx).Where("contest_id = ? AND removed_at IS NULL", contestID)
	switch {
	case ref.UserID != nil:
		query = query.Where("user_id = ?", *ref.UserID)
	case ref.AgentID != nil:
		query = query.Where("agent_id = ?", *ref.AgentID)
	default:
		return nil, contest.ErrNotFound
	}

	var row JudgeAssignment
	if err := query.First(&row).Error; err != nil {
		return nil, failed(span, err)
	}

	j := row.domain()
	return &j, nil
}

func (s *Store) ListJudges(ctx context.Context, contestID uuid.UUID) ([]contest.JudgeAssignment, error) {
	ctx, span := tracer.Start(ctx, "Store.ListJudges")
	defer span.End()

	var rows []JudgeAssignment
	err := s.conn(ctx).
		Where("contest_id = ?", contestID).
		Order("assigned_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, failed(span, err)
	}

	out := make([]contest.JudgeAssignment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, nil
}

func (s *Store) RemoveJudge(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Store.RemoveJudge")
	defer span.End()

	result := s.conn(ctx).
		Model(&JudgeAssignment{}).
		Where("id = ? AND removed_at IS NULL", id).
		Update("removed_at", at)
	if result.Error != nil {
		return failed(span, result.Error)
	}
	if result.RowsAffected == 0 {
		return contest.ErrNotFound
	}

	return nil
}
