package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/quillfight/contest-api/internal/contest"
)

type Contest struct {
	Title              string
	Description        string
	Status             string
	PasswordHash       datatypes.Null[string]
	EndDate            datatypes.Null[time.Time]
	ClosedAt           datatypes.Null[time.Time]
	Model
	CreatorID          uuid.UUID
	MinVotesRequired   int
	PubliclyListed     bool
	PasswordProtected  bool
	AuthorRestrictions bool
	JudgeRestrictions  bool
}

func (Contest) TableName() string {
	return "contest"
}

func (c Contest) GetID() uuid.UUID {
	return c.ID
}

func contestRow(c *contest.Contest) *Contest {
	row := &Contest{
		Model: Model{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		Title:              c.Title,
		Description:        c.Description,
		Status:             string(c.Status),
		EndDate:            NewNull(c.EndDate),
		ClosedAt:           NewNull(c.ClosedAt),
		CreatorID:          c.CreatorID,
		MinVotesRequired:   c.MinVotesRequired,
		PubliclyListed:     c.PubliclyListed,
		PasswordProtected:  c.PasswordProtected,
		AuthorRestrictions: c.AuthorRestrictions,
		JudgeRestrictions:  c.JudgeRestrictions,
	}
	if c.PasswordHash != "" {
		row.PasswordHash = NewNullFromData(c.PasswordHash)
	}
	return row
}

func (c *Contest) domain() *contest.Contest {
	return &contest.Contest{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		PubliclyListed:     c.PubliclyListed,
		PasswordProtected:  c.PasswordProtected,
		PasswordHash:       c.PasswordHash.V,
		Status:             contest.Status(c.Status),
		EndDate:            PtrFromNull(c.EndDate),
		AuthorRestrictions: c.AuthorRestrictions,
		JudgeRestrictions:  c.JudgeRestrictions,
		MinVotesRequired:   c.MinVotesRequired,
		CreatorID:          c.CreatorID,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		ClosedAt:           PtrFromNull(c.ClosedAt),
	}
}

func (s *Store) CreateContest(ctx context.Context, c *contest.Contest) error {
	ctx, span := tracer.Start(ctx, "Store.CreateContest")
	defer span.End()

	row := contestRow(c)
	if err := s.conn(ctx).Create(row).Error; err != nil {
		return failed(span, err)
	}

	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) getContest(ctx context.Context, id uuid.UUID, lock func() clause.Locking) (*contest.Contest, error) {
	ctx, span := tracer.Start(ctx, "Store.GetContest")
	defer span.End()

	query := s.conn(ctx)
	if lock != nil {
		query = query.Clauses(lock())
	}

	var row Contest
	if err := query.First(&row, "id = ?", id).Error; err != nil {
		return nil, failed(span, err)
	}

	return row.domain(), nil
}

func (s *Store) GetContest(ctx context.Context, id uuid.UUID) (*contest.Contest, error) {
	return s.getContest(ctx, id, nil)
}

func (s *Store) LockContest(ctx context.Context, id uuid.UUID) (*contest.Contest, error) {
	return s.getContest(ctx, id, lockForUpdate)
}

func (s *Store) ShareLockContest(ctx context.Context, id uuid.UUID) (*contest.Contest, error) {
	return s.getContest(ctx, id, lockForShare)
}

var contestColumns = []string{
	"title",
	"description",
	"status",
	"password_hash",
	"end_date",
	"closed_at",
	"min_votes_required",
	"publicly_listed",
	"password_protected",
	"author_restrictions",
	"judge_restrictions",
}

func (s *Store) UpdateContest(ctx context.Context, c *contest.Contest) error {
	ctx, span := tracer.Start(ctx, "Store.UpdateContest")
	defer span.End()

	result := s.conn(ctx).
		Model(&Contest{}).
		Where("id = ?", c.ID).
		Select(contestColumns).
		Updates(contestRow(c))
	if result.Error != nil {
		return failed(span, result.Error)
	}
	if result.RowsAffected == 0 {
		return contest.ErrNotFound
	}

	return nil
}

func (s *Store) ListContests(ctx context.Context, filter contest.ContestFilter) ([]contest.Contest, error) {
	ctx, span := tracer.Start(ctx, "Store.ListContests")
	defer span.End()

	query := s.conn(ctx).Model(&Contest{})
	if !filter.All {
		query = query.Where(
			"(publicly_listed AND status <> ?) OR creator_id = ?",
			contest.StatusDraft,
			filter.CreatorID,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []Contest
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, failed(span, err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].domain())
	}
	return out, nil
}

func (s *Store) ListExpiredContests(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "Store.ListExpiredContests")
	defer span.End()

	ids := []uuid.UUID{}
	err := s.conn(ctx).
		Model(&Contest{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", contest.StatusOpen, now).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, failed(span, err)
	}

	return ids, nil
}
