package contest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
)

type SubmitRequest struct {
	TextID uuid.UUID
	// Defaults to the actor. Only the system account and admins may submit
	// for someone else.
	AuthorID *uuid.UUID
}

// Submit admits a text into an open contest. Rejections are checked in order:
// not open, deadline passed, duplicate text, duplicate author.
func (s *Service) Submit(
	ctx context.Context,
	actor Actor,
	contestID uuid.UUID,
	req SubmitRequest,
) (*Submission, error) {
	ctx, span := tracer.Start(ctx, "Service.Submit", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("text.id", req.TextID.String()),
	))
	defer span.End()

	var created *Submission
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, contestID, lockExclusive)
		if err != nil {
			return err
		}

		if err := CanWrite(actor, c, grant, ActionSubmit); err != nil {
			return err
		}

		now := s.now(ctx)
		if c.DeadlinePassed(now) {
			return ErrDeadlinePassed
		}

		authorID := actor.ID
		if req.AuthorID != nil && *req.AuthorID != actor.ID {
			if !actor.System && !actor.IsAdmin() {
				return fmt.Errorf("%w: cannot submit on behalf of another author", ErrNotPermitted)
			}
			authorID = *req.AuthorID
		}
		if req.TextID == uuid.Nil || authorID == uuid.Nil {
			return fmt.Errorf("%w: text and author are required", ErrInvalidInput)
		}

		if err := ensureAbsent(tx.ActiveSubmissionByText(ctx, c.ID, req.TextID)); err != nil {
			if errors.Is(err, ErrConflict) {
				return ErrDuplicateText
			}
			return err
		}

		if c.AuthorRestrictions {
			if err := ensureAbsent(tx.ActiveSubmissionByAuthor(ctx, c.ID, authorID)); err != nil {
				if errors.Is(err, ErrConflict) {
					return ErrDuplicateAuthor
				}
				return err
			}
		}

		id, err := newID()
		if err != nil {
			return err
		}

		sub := &Submission{
			ID:          id,
			ContestID:   c.ID,
			TextID:      req.TextID,
			AuthorID:    authorID,
			SubmittedAt: now,
		}
		if c.AuthorRestrictions {
			sub.ExclusiveAuthorID = &authorID
		}

		if err := tx.CreateSubmission(ctx, sub); err != nil {
			return err
		}

		created = sub
		return nil
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("submission.id", created.ID.String()))
	submissionCounter.Add(ctx, 1)
	audit.LogSubmission(audit.NewContext(contestID, actor.ID), created.ID, created.TextID, created.AuthorID)

	return created, nil
}

// ensureAbsent turns a lookup result into ErrConflict when a row was found.
func ensureAbsent[T any](found *T, err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// Withdraw tombstones a submission. Its author may withdraw while the contest
// is open, the creator or an admin while it is open or in evaluation.
func (s *Service) Withdraw(ctx context.Context, actor Actor, contestID, submissionID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Service.Withdraw", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("submission.id", submissionID.String()),
	))
	defer span.End()

	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, contestID, lockExclusive)
		if err != nil {
			return err
		}

		if !actor.Authenticated {
			return ErrUnauthenticated
		}

		sub, err := tx.GetSubmission(ctx, c.ID, submissionID)
		if err != nil {
			return err
		}
		if !sub.Active() {
			return fmt.Errorf("%w: submission already withdrawn", ErrNotFound)
		}

		switch {
		case c.IsPrivileged(actor):
			err = CanWrite(actor, c, grant, ActionWithdrawAny)
		case sub.AuthorID == actor.ID:
			err = CanWrite(actor, c, grant, ActionWithdrawOwn)
		default:
			err = fmt.Errorf("%w: not the author of this submission", ErrNotPermitted)
		}
		if err != nil {
			return err
		}

		return tx.WithdrawSubmission(ctx, sub.ID, actor.ID, s.now(ctx))
	})
	finish(span, err)
	if err != nil {
		return err
	}

	withdrawalCounter.Add(ctx, 1)
	audit.LogSubmissionWithdrawn(audit.NewContext(contestID, actor.ID), submissionID)

	return nil
}

// ListSubmissions returns the active submissions. The creator and admins also
// see withdrawn ones.
func (s *Service) ListSubmissions(ctx context.Context, actor Actor, contestID uuid.UUID) ([]Submission, error) {
	ctx, span := tracer.Start(ctx, "Service.ListSubmissions", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	c, _, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		finish(span, err)
		return nil, err
	}

	all, err := s.store.ListSubmissions(ctx, contestID)
	finish(span, err)
	if err != nil {
		return nil, err
	}

	if c.IsPrivileged(actor) {
		return all, nil
	}

	active := make([]Submission, 0, len(all))
	for i := range all {
		if all[i].Active() {
			active = append(active, all[i])
		}
	}
	return active, nil
}

// CountSubmissions derives the participant and submission counts from the
// active rows.
func CountSubmissions(submissions []Submission) Counts {
	authors := make(map[uuid.UUID]struct{})
	var counts Counts
	for i := range submissions {
		if !submissions[i].Active() {
			continue
		}
		counts.Submissions++
		authors[submissions[i].AuthorID] = struct{}{}
	}
	counts.Participants = len(authors)
	return counts
}
