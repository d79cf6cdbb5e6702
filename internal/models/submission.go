package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quillfight/contest-api/internal/contest"
)

type Submission struct {
	SubmittedAt       time.Time
	WithdrawnAt       datatypes.Null[time.Time]
	WithdrawnBy       *uuid.UUID
	ExclusiveAuthorID *uuid.UUID
	Model
	ContestID uuid.UUID
	TextID    uuid.UUID
	AuthorID  uuid.UUID
}

func (Submission) TableName() string {
	return "submission"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}

func submissionRow(sub *contest.Submission) *Submission {
	return &Submission{
		Model:             Model{ID: sub.ID},
		ContestID:         sub.ContestID,
		TextID:            sub.TextID,
		AuthorID:          sub.AuthorID,
		SubmittedAt:       sub.SubmittedAt,
		WithdrawnAt:       NewNull(sub.WithdrawnAt),
		WithdrawnBy:       sub.WithdrawnBy,
		ExclusiveAuthorID: sub.ExclusiveAuthorID,
	}
}

func (s *Submission) domain() contest.Submission {
	return contest.Submission{
		ID:                s.ID,
		ContestID:         s.ContestID,
		TextID:            s.TextID,
		AuthorID:          s.AuthorID,
		SubmittedAt:       s.SubmittedAt,
		WithdrawnAt:       PtrFromNull(s.WithdrawnAt),
		WithdrawnBy:       s.WithdrawnBy,
		ExclusiveAuthorID: s.ExclusiveAuthorID,
	}
}

func (s *Store) CreateSubmission(ctx context.Context, sub *contest.Submission) error {
	ctx, span := tracer.Start(ctx, "Store.CreateSubmission")
	defer span.End()

	row := submissionRow(sub)
	if err := s.conn(ctx).Create(row).Error; err != nil {
		return failed(span, err)
	}

	sub.ID = row.ID
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, contestID, id uuid.UUID) (*contest.Submission, error) {
	ctx, span := tracer.Start(ctx, "Store.GetSubmission")
	defer span.End()

	var row Submission
	err := s.conn(ctx).First(&row, "id = ? AND contest_id = ?", id, contestID).Error
	if err != nil {
		return nil, failed(span, err)
	}

	sub := row.domain()
	return &sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, contestID uuid.UUID) ([]contest.Submission, error) {
	ctx, span := tracer.Start(ctx, "Store.ListSubmissions")
	defer span.End()

	var rows []Submission
	err := s.conn(ctx).
		Where("contest_id = ?", contestID).
		Order("submitted_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, failed(span, err)
	}

	out := make([]contest.Submission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, nil
}

func (s *Store) activeSubmission(ctx context.Context, query string, args ...any) (*contest.Submission, error) {
	ctx, span := tracer.Start(ctx, "Store.ActiveSubmission")
	defer span.End()

	var row Submission
	err := s.conn(ctx).
		Where("withdrawn_at IS NULL").
		Where(query, args...).
		First(&row).Error
	if err != nil {
		return nil, failed(span, err)
	}

	sub := row.domain()
	return &sub, nil
}

func (s *Store) ActiveSubmissionByText(ctx context.Context, contestID, textID uuid.UUID) (*contest.Submission, error) {
	return s.activeSubmission(ctx, "contest_id = ? AND text_id = ?", contestID, textID)
}

func (s *Store) ActiveSubmissionByAuthor(ctx context.Context, contestID, authorID uuid.UUID) (*contest.Submission, error) {
	return s.activeSubmission(ctx, "contest_id = ? AND author_id = ?", contestID, authorID)
}

func (s *Store) WithdrawSubmission(ctx context.Context, id, by uuid.UUID, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Store.WithdrawSubmission")
	defer span.End()

	result := s.conn(ctx).
		Model(&Submission{}).
		Where("id = ? AND withdrawn_at IS NULL", id).
		Updates(map[string]any{
			"withdrawn_at":        at,
			"withdrawn_by":        by,
			"exclusive_author_id": nil,
		})
	if result.Error != nil {
		return failed(span, result.Error)
	}
	if result.RowsAffected == 0 {
		return contest.ErrNotFound
	}

	return nil
}

func (s *Store) SetExclusiveAuthors(ctx context.Context, contestID uuid.UUID, exclusive bool) error {
	ctx, span := tracer.Start(ctx, "Store.SetExclusiveAuthors")
	defer span.End()
	span.SetAttributes(attribute.Bool("exclusive", exclusive))

	var value any
	if exclusive {
		value = gorm.Expr("author_id")
	}

	err := s.conn(ctx).
		Model(&Submission{}).
		Where("contest_id = ? AND withdrawn_at IS NULL", contestID).
		Update("exclusive_author_id", value).Error
	if err != nil {
		return failed(span, err)
	}

	return nil
}
